// Package bootstrap loads and classifies the operator-supplied
// bootstrap list: discovery records ("enr:" URIs) and direct overlay
// multiaddresses.
package bootstrap

import (
	"os"
	"strings"

	ma "github.com/multiformats/go-multiaddr"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/inspector/pkg/enr"
)

// Address is a successfully parsed bootstrap entry. Exactly one
// concrete type exists per entry kind; malformed input never becomes
// an Address.
type Address interface {
	// String re-encodes the entry in its original textual form.
	String() string
}

// RecordAddress wraps a signed discovery record.
type RecordAddress struct {
	Record *enr.Record
}

func (a RecordAddress) String() string {
	return a.Record.Enr
}

// MultiAddress wraps a layered transport address with an embedded
// peer identity.
type MultiAddress struct {
	Addr ma.Multiaddr
}

func (a MultiAddress) String() string {
	return a.Addr.String()
}

// IsOverlayAddr reports whether the multiaddress is a direct overlay
// peer address: a TCP transport plus an embedded identity.
func IsOverlayAddr(addr ma.Multiaddr) bool {
	return hasProtocol(addr, ma.P_TCP) && hasProtocol(addr, ma.P_P2P)
}

// IsDiscoveryAddr reports whether the multiaddress is a discovery
// endpoint: a UDP transport plus an embedded identity.
func IsDiscoveryAddr(addr ma.Multiaddr) bool {
	return hasProtocol(addr, ma.P_UDP) && hasProtocol(addr, ma.P_P2P)
}

func hasProtocol(addr ma.Multiaddr, code int) bool {
	for _, p := range addr.Protocols() {
		if p.Code == code {
			return true
		}
	}

	return false
}

// Load reads the optional bootstrap file and appends the command-line
// entries. Per-entry parse failures are logged and skipped; only a
// missing or unreadable file aborts the load. The returned list may be
// empty; the caller decides whether that is fatal.
func Load(log logrus.FieldLogger, path string, entries []string) ([]Address, error) {
	candidates := []string{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read bootstrap file %s", path)
		}

		for _, line := range splitLines(string(data)) {
			line = UnwrapListItem(strings.TrimSpace(line))
			if line == "" {
				continue
			}

			candidates = append(candidates, line)
		}
	}

	candidates = append(candidates, entries...)

	addresses := []Address{}

	for _, candidate := range candidates {
		address, err := ParseEntry(candidate)
		if err != nil {
			log.WithError(err).WithField("entry", candidate).Warn("Skipping unparseable bootstrap entry")

			continue
		}

		addresses = append(addresses, address)
	}

	return addresses, nil
}

// ParseEntry classifies a single bootstrap string. "enr:"-prefixed
// entries must parse as discovery records; everything else must be a
// multiaddress shaped as either an overlay peer or a discovery
// endpoint.
func ParseEntry(entry string) (Address, error) {
	if strings.HasPrefix(entry, "enr:") {
		record, err := enr.Parse(entry)
		if err != nil {
			return nil, err
		}

		return RecordAddress{Record: record}, nil
	}

	addr, err := ma.NewMultiaddr(entry)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse multiaddress")
	}

	if !IsOverlayAddr(addr) && !IsDiscoveryAddr(addr) {
		return nil, errors.Errorf("multiaddress %s is neither an overlay peer nor a discovery endpoint", entry)
	}

	return MultiAddress{Addr: addr}, nil
}

// UnwrapListItem extracts the quoted token from a YAML list item of
// the shape `- "entry"`. Anything else is returned unchanged.
func UnwrapListItem(line string) string {
	rest, ok := strings.CutPrefix(line, "-")
	if !ok {
		return line
	}

	rest = strings.TrimSpace(rest)
	if len(rest) < 2 || rest[0] != '"' || rest[len(rest)-1] != '"' {
		return line
	}

	inner := rest[1 : len(rest)-1]
	if strings.Contains(inner, `"`) {
		return line
	}

	return inner
}

func splitLines(data string) []string {
	data = strings.ReplaceAll(data, "\r\n", "\n")

	return strings.Split(data, "\n")
}
