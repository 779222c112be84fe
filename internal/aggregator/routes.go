package aggregator

import (
	"github.com/civic-india/backend/internal/evidence/sources"
	"github.com/civic-india/backend/internal/intent"
)

// Routes maps an intent to the provider IDs consulted for it. The order of
// each list is the order evidence appears in the merged bundle.
type Routes map[intent.Intent][]string

// DefaultRoutes is the fixed civic routing table. Grievances and general
// questions both go to the open-government-data portal.
func DefaultRoutes() Routes {
	return Routes{
		intent.Law:            {sources.IndiaCode, sources.PRS},
		intent.Representative: {sources.MyNeta, sources.ECI},
		intent.FactCheck:      {sources.PIB},
		intent.Grievance:      {sources.DataGov},
		intent.General:        {sources.DataGov},
	}
}
