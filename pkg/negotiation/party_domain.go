package negotiation

// Built-in example domain and profile pair: two organizers negotiating the
// setup of a party. Used as the default for the arena, the server, and as a
// realistic fixture in tests. Profile-file loading (LoadProfile) covers
// externally supplied domains.

// PartyDomain returns the example party-planning domain.
func PartyDomain() *Domain {
	d, err := NewDomain("party", []Issue{
		{Name: "food", Values: []string{"pizza", "catering", "finger-food", "homemade"}},
		{Name: "drinks", Values: []string{"soda", "beer", "cocktails", "juice"}},
		{Name: "location", Values: []string{"ballroom", "garden", "dorm", "bar"}},
		{Name: "invitations", Values: []string{"email", "printed", "social-media"}},
		{Name: "music", Values: []string{"dj", "band", "playlist"}},
		{Name: "cleanup", Values: []string{"hired", "shared", "hosts"}},
	})
	if err != nil {
		panic(err) // static data, must be valid
	}
	return d
}

// PartyProfiles returns the two built-in preference profiles over
// PartyDomain. The profiles are partially opposed so negotiations have real
// room for both concession and mutual gain.
func PartyProfiles() (*Profile, *Profile) {
	d := PartyDomain()

	host, err := NewProfile("party-host", d,
		map[string]float64{
			"food": 0.25, "drinks": 0.10, "location": 0.30,
			"invitations": 0.05, "music": 0.15, "cleanup": 0.15,
		},
		map[string]map[string]float64{
			"food":        {"pizza": 1.0, "catering": 0.4, "finger-food": 0.7, "homemade": 0.2},
			"drinks":      {"soda": 0.6, "beer": 1.0, "cocktails": 0.3, "juice": 0.1},
			"location":    {"ballroom": 0.2, "garden": 1.0, "dorm": 0.6, "bar": 0.4},
			"invitations": {"email": 1.0, "printed": 0.2, "social-media": 0.7},
			"music":       {"dj": 0.8, "band": 0.3, "playlist": 1.0},
			"cleanup":     {"hired": 1.0, "shared": 0.5, "hosts": 0.0},
		})
	if err != nil {
		panic(err)
	}

	guest, err := NewProfile("party-guest", d,
		map[string]float64{
			"food": 0.10, "drinks": 0.30, "location": 0.15,
			"invitations": 0.10, "music": 0.25, "cleanup": 0.10,
		},
		map[string]map[string]float64{
			"food":        {"pizza": 0.4, "catering": 1.0, "finger-food": 0.6, "homemade": 0.8},
			"drinks":      {"soda": 0.2, "beer": 0.5, "cocktails": 1.0, "juice": 0.3},
			"location":    {"ballroom": 1.0, "garden": 0.4, "dorm": 0.1, "bar": 0.8},
			"invitations": {"email": 0.3, "printed": 1.0, "social-media": 0.5},
			"music":       {"dj": 1.0, "band": 0.7, "playlist": 0.2},
			"cleanup":     {"hired": 0.8, "shared": 1.0, "hosts": 0.3},
		})
	if err != nil {
		panic(err)
	}

	return host, guest
}
