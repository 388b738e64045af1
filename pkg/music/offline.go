package music

// offlinePopularity is the popularity shown on generated offline data.
const offlinePopularity = 25

const offlineGridSize = 8

// OfflineGrid returns the placeholder cards shown by the browse views when
// every source failed.
func OfflineGrid() []Card {
	cards := make([]Card, offlineGridSize)
	for i := range cards {
		cards[i] = Card{Name: "Artist Offline", Image: PlaceholderImage, Popularity: offlinePopularity}
	}
	return cards
}

// OfflineProfile builds a clearly-marked offline profile for name. It is a UI
// affordance for offline mode only; Resolver never substitutes it for a
// failed resolution.
func OfflineProfile(name string) Resolution {
	profile := NewArtistProfile(name, []string{"Offline"}, PlaceholderImage, offlinePopularity, "0")
	return Resolution{Artist: NewResolvedArtist(profile, nil, nil, SourceOffline)}
}
