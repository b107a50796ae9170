package types

import "strings"

// Default gateway bases.
const (
	DefaultPrimaryGateway   = "https://arweave.net"
	DefaultSecondaryGateway = "https://ar-io.net"
)

// Gateways holds the two retrieval gateway bases. Both URLs are returned
// with every successful upload, independent of confirmation state.
type Gateways struct {
	Primary   string
	Secondary string
}

// DefaultGateways returns the production gateway bases.
func DefaultGateways() Gateways {
	return Gateways{Primary: DefaultPrimaryGateway, Secondary: DefaultSecondaryGateway}
}

// PrimaryURL returns the primary retrieval URL for a content identifier.
func (g Gateways) PrimaryURL(id string) string {
	return joinGateway(g.Primary, id)
}

// SecondaryURL returns the alternate-index retrieval URL for a content identifier.
func (g Gateways) SecondaryURL(id string) string {
	return joinGateway(g.Secondary, id)
}

// URLs returns both retrieval URLs, primary first.
func (g Gateways) URLs(id string) []string {
	return []string{g.PrimaryURL(id), g.SecondaryURL(id)}
}

func joinGateway(base, id string) string {
	if base == "" || id == "" {
		return ""
	}
	return strings.TrimRight(base, "/") + "/" + id
}
