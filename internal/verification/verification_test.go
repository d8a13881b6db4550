package verification

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rankidang/seo-crawler/internal/db"
)

type fakeTXTLookup struct {
	records [][]string
	err     error
	calls   int
}

func (f *fakeTXTLookup) LookupTXT(ctx context.Context, domain string) ([][]string, error) {
	f.calls++
	return f.records, f.err
}

type fakeStore struct {
	updates []map[string]interface{}
	err     error
}

func (f *fakeStore) UpdateDomain(id uint, fields map[string]interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.updates = append(f.updates, fields)
	return nil
}

func TestGenerateKeyFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^rankidang-[a-zA-Z0-9]{16}-[a-zA-Z0-9]{16}$`)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		key := GenerateKey()
		assert.Regexp(t, pattern, key)
		assert.False(t, seen[key], "keys must not repeat")
		seen[key] = true
	}
}

func TestEnsureKeyGeneratesLazily(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(&fakeTXTLookup{}, store)
	domain := &db.Domain{ID: 7, Name: "example.com"}

	key, err := svc.EnsureKey(domain)
	require.NoError(t, err)
	assert.NotEmpty(t, key)
	assert.Equal(t, key, domain.VerificationKey)

	require.Len(t, store.updates, 1)
	assert.Equal(t, key, store.updates[0]["verification_key"])
}

func TestEnsureKeyNeverRegenerates(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(&fakeTXTLookup{}, store)
	domain := &db.Domain{ID: 7, VerificationKey: "rankidang-existing00000000-existing00000000"}

	key, err := svc.EnsureKey(domain)
	require.NoError(t, err)
	assert.Equal(t, domain.VerificationKey, key)
	assert.Empty(t, store.updates, "existing keys are left untouched")
}

func TestVerifyFailsClosedWithoutKey(t *testing.T) {
	lookup := &fakeTXTLookup{}
	svc := NewService(lookup, &fakeStore{})
	domain := &db.Domain{ID: 1, Name: "example.com"}

	ok, err := svc.Verify(context.Background(), domain)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, lookup.calls, "no DNS call without a key")
}

func TestVerifyMatchesSubstringAcrossRecords(t *testing.T) {
	key := "rankidang-aaaaaaaaaaaaaaaa-bbbbbbbbbbbbbbbb"
	lookup := &fakeTXTLookup{records: [][]string{
		{"v=spf1 include:_spf.google.com -all"},
		{"site-verification=" + key + ";ttl=300"},
	}}
	store := &fakeStore{}
	svc := NewService(lookup, store)
	domain := &db.Domain{ID: 3, Name: "example.com", VerificationKey: key}

	ok, err := svc.Verify(context.Background(), domain)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, domain.Verified)

	require.Len(t, store.updates, 1)
	assert.Equal(t, true, store.updates[0]["verified"])
}

func TestVerifyNoMatch(t *testing.T) {
	lookup := &fakeTXTLookup{records: [][]string{{"unrelated"}, {"also unrelated"}}}
	store := &fakeStore{}
	svc := NewService(lookup, store)
	domain := &db.Domain{ID: 3, Name: "example.com", VerificationKey: "rankidang-x-y"}

	ok, err := svc.Verify(context.Background(), domain)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, domain.Verified)
	assert.Empty(t, store.updates)
}

func TestVerifySurfacesDNSErrors(t *testing.T) {
	cause := errors.New("resolution failed")
	svc := NewService(&fakeTXTLookup{err: cause}, &fakeStore{})
	domain := &db.Domain{ID: 3, Name: "example.com", VerificationKey: "rankidang-x-y"}

	ok, err := svc.Verify(context.Background(), domain)
	assert.False(t, ok)
	assert.ErrorIs(t, err, cause)
}
