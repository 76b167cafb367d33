package ctdf

type ServiceConfig struct {
	Name        string            `yaml:"name"`
	AgencyID    string            `yaml:"agency" validate:"required"`
	APIVariant  APIVariant        `yaml:"variant"`
	Stops       []StopConfig      `yaml:"stops" validate:"required,min=1,dive"`
	RouteRename map[string]string `yaml:"route_rename"`
}

// Headline is the banner shown ahead of the service's stop groups on the board.
func (s ServiceConfig) Headline() string {
	if s.Name != "" {
		return s.Name
	}

	return s.AgencyID
}

func (s ServiceConfig) DirectionFor(stopID string) string {
	for _, stop := range s.Stops {
		if stop.StopID == stopID {
			return stop.Direction
		}
	}

	return ""
}

func (s ServiceConfig) StopIDs() []string {
	stopIDs := make([]string, 0, len(s.Stops))
	for _, stop := range s.Stops {
		stopIDs = append(stopIDs, stop.StopID)
	}

	return stopIDs
}

// RenameRoute maps an upstream route identifier to its display name. Unmapped routes pass through.
func RenameRoute(routeID string, rename map[string]string) string {
	if renamed, ok := rename[routeID]; ok && renamed != "" {
		return renamed
	}

	return routeID
}
