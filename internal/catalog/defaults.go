package catalog

// capital is a row of the built-in fallback list.
type capital struct {
	name    string
	country string
	lat     float64
	lon     float64
}

var capitals = []capital{
	{"London", "United Kingdom", 51.5074, -0.1278},
	{"Paris", "France", 48.8566, 2.3522},
	{"Berlin", "Germany", 52.5200, 13.4050},
	{"Rome", "Italy", 41.9028, 12.4964},
	{"Madrid", "Spain", 40.4168, -3.7038},
	{"Amsterdam", "Netherlands", 52.3676, 4.9041},
	{"Brussels", "Belgium", 50.8503, 4.3517},
	{"Vienna", "Austria", 48.2082, 16.3738},
	{"Bern", "Switzerland", 46.9480, 7.4474},
	{"Oslo", "Norway", 59.9139, 10.7522},
	{"Stockholm", "Sweden", 59.3293, 18.0686},
	{"Copenhagen", "Denmark", 55.6761, 12.5683},
	{"Helsinki", "Finland", 60.1699, 24.9384},
	{"Dublin", "Ireland", 53.3498, -6.2603},
	{"Lisbon", "Portugal", 38.7223, -9.1393},
	{"Athens", "Greece", 37.9838, 23.7275},
	{"Warsaw", "Poland", 52.2297, 21.0122},
	{"Prague", "Czech Republic", 50.0755, 14.4378},
	{"Budapest", "Hungary", 47.4979, 19.0402},
	{"Bucharest", "Romania", 44.4268, 26.1025},
	{"Istanbul", "Turkey", 41.0082, 28.9784},
	{"Moscow", "Russia", 55.7558, 37.6173},
	{"Tokyo", "Japan", 35.6762, 139.6503},
	{"Beijing", "China", 39.9042, 116.4074},
	{"New York", "United States", 40.7128, -74.0060},
	{"Los Angeles", "United States", 34.0522, -118.2437},
	{"Sydney", "Australia", -33.8688, 151.2093},
	{"Dubai", "United Arab Emirates", 25.2048, 55.2708},
	{"Singapore", "Singapore", 1.3521, 103.8198},
	{"Mumbai", "India", 19.0760, 72.8777},
}

// DefaultStations returns the built-in station list used when no dataset is
// available.
func DefaultStations() []Station {
	out := make([]Station, 0, len(capitals))
	for _, c := range capitals {
		out = append(out, NewStation("", c.name, c.country, c.lat, c.lon))
	}
	return out
}

// CountryFor returns the country of a built-in city, or "Unknown".
func CountryFor(city string) string {
	key := Normalize(city)
	for _, c := range capitals {
		if Normalize(c.name) == key {
			return c.country
		}
	}
	return "Unknown"
}
