package adroute

// LaunchConfig holds read-only rollout flags for ad units.
type LaunchConfig struct {
	StickyEnabled                bool
	InterstitialFrequencyMinutes int
	PilotRoutes                  []string
}

// RouteConfig is what the page shell needs to place ads on one route.
type RouteConfig struct {
	Decision
	Sticky                       bool `json:"sticky"`
	InterstitialFrequencyMinutes int  `json:"interstitialFrequencyMinutes"`
	Pilot                        bool `json:"pilot"`
}

// ForPath combines the route decision with launch flags. Flags only apply to
// routes that allow ads.
func (c LaunchConfig) ForPath(path string) RouteConfig {
	d := Resolve(path)
	rc := RouteConfig{Decision: d}
	if !d.Allowed() {
		return rc
	}
	rc.Sticky = c.StickyEnabled
	if c.InterstitialFrequencyMinutes > 0 {
		rc.InterstitialFrequencyMinutes = c.InterstitialFrequencyMinutes
	}
	for _, pilot := range c.PilotRoutes {
		if NormalizePath(pilot) == d.Path {
			rc.Pilot = true
			break
		}
	}
	return rc
}
