package dns

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeResolver scripts per-record-type results and counts calls.
type fakeResolver struct {
	mu sync.Mutex

	txt    []string
	txtErr error
	ip4    []net.IP
	ip4Err error
	ip6    []net.IP
	ip6Err error
	mx     []*net.MX
	mxErr  error
	ns     []*net.NS
	nsErr  error
	cname  string
	cnErr  error

	txtCalls int
}

func (f *fakeResolver) LookupTXT(ctx context.Context, name string) ([]string, error) {
	f.mu.Lock()
	f.txtCalls++
	f.mu.Unlock()
	return f.txt, f.txtErr
}

func (f *fakeResolver) LookupIP(ctx context.Context, network, host string) ([]net.IP, error) {
	if network == "ip4" {
		return f.ip4, f.ip4Err
	}
	return f.ip6, f.ip6Err
}

func (f *fakeResolver) LookupMX(ctx context.Context, name string) ([]*net.MX, error) {
	return f.mx, f.mxErr
}

func (f *fakeResolver) LookupNS(ctx context.Context, name string) ([]*net.NS, error) {
	return f.ns, f.nsErr
}

func (f *fakeResolver) LookupCNAME(ctx context.Context, host string) (string, error) {
	return f.cname, f.cnErr
}

func TestLookupTXT(t *testing.T) {
	resolver := &fakeResolver{txt: []string{"v=spf1 -all", "rankidang-abc-def"}}
	svc := NewService(resolver)

	records, err := svc.LookupTXT(context.Background(), "https://www.example.com/path")
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"v=spf1 -all"}, {"rankidang-abc-def"}}, records)
	assert.Equal(t, 1, resolver.txtCalls)
}

func TestLookupTXTWrapsResolverError(t *testing.T) {
	cause := errors.New("no such host")
	resolver := &fakeResolver{txtErr: cause}
	svc := NewService(resolver)

	_, err := svc.LookupTXT(context.Background(), "example.com")
	require.Error(t, err)

	var lookupErr *LookupError
	require.ErrorAs(t, err, &lookupErr)
	assert.Equal(t, "example.com", lookupErr.Domain)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "example.com")
}

func TestLookupTXTInvalidDomainSkipsNetwork(t *testing.T) {
	resolver := &fakeResolver{}
	svc := NewService(resolver)

	for _, raw := range []string{"", "https://", "http://www."} {
		_, err := svc.LookupTXT(context.Background(), raw)
		assert.ErrorIs(t, err, ErrInvalidDomain, "raw=%q", raw)
	}
	assert.Zero(t, resolver.txtCalls, "invalid domains must not hit the resolver")
}

func TestLookupAll(t *testing.T) {
	resolver := &fakeResolver{
		txt:   []string{"hello"},
		ip4:   []net.IP{net.ParseIP("93.184.216.34")},
		ip6:   []net.IP{net.ParseIP("2606:2800:220:1::1")},
		mx:    []*net.MX{{Host: "mail.example.com.", Pref: 10}},
		ns:    []*net.NS{{Host: "ns1.example.com."}},
		cname: "example.com.",
	}
	svc := NewService(resolver)

	set, err := svc.LookupAll(context.Background(), "example.com")
	require.NoError(t, err)

	assert.Equal(t, []string{"93.184.216.34"}, set.A)
	assert.Equal(t, []string{"2606:2800:220:1::1"}, set.AAAA)
	assert.Equal(t, []string{"10 mail.example.com."}, set.MX)
	assert.Equal(t, [][]string{{"hello"}}, set.TXT)
	assert.Equal(t, []string{"ns1.example.com."}, set.NS)
	assert.Equal(t, []string{"example.com."}, set.CNAME)
}

func TestLookupAllSwallowsIndividualFailures(t *testing.T) {
	resolver := &fakeResolver{
		txtErr: errors.New("txt failed"),
		ip4Err: errors.New("a failed"),
		ip6Err: errors.New("aaaa failed"),
		mxErr:  errors.New("mx failed"),
		nsErr:  errors.New("ns failed"),
		cnErr:  errors.New("cname failed"),
	}
	svc := NewService(resolver)

	set, err := svc.LookupAll(context.Background(), "example.com")
	require.NoError(t, err, "full lookup never fails past validation")

	assert.Empty(t, set.A)
	assert.Empty(t, set.AAAA)
	assert.Empty(t, set.MX)
	assert.Empty(t, set.TXT)
	assert.Empty(t, set.NS)
	assert.Empty(t, set.CNAME)
}

func TestLookupAllInvalidDomain(t *testing.T) {
	svc := NewService(&fakeResolver{})

	_, err := svc.LookupAll(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidDomain)
}
