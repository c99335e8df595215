package fulfillment

import (
	"fmt"

	"fulfillment-engine/internal/models"
)

type accountKey struct {
	route models.Route
	env   models.Environment
}

// The only place in the engine that knows environment-specific account
// codes. Exactly one code per (route, environment) pair.
var accounts = map[accountKey]string{
	{models.RouteInHouse, models.EnvProduction}:  "WHSE-PROD",
	{models.RouteDropShip, models.EnvProduction}: "DROP-PROD",
	{models.RouteInHouse, models.EnvTest}:        "WHSE-TEST",
	{models.RouteDropShip, models.EnvTest}:       "DROP-TEST",
}

// RouteFor is decided by order content alone: drop-ship iff the catalog
// marked the item eligible.
func RouteFor(item models.LineItem) models.Route {
	if item.DropShipEligible {
		return models.RouteDropShip
	}
	return models.RouteInHouse
}

func AccountFor(route models.Route, env models.Environment) (string, error) {
	code, ok := accounts[accountKey{route, env}]
	if !ok {
		return "", fmt.Errorf("no distributor account for route %q env %q", route, env)
	}
	return code, nil
}

// Classify assigns a route and distributor account to every non-held line
// item. Held items are left untouched.
func Classify(items []models.LineItem, env models.Environment) ([]models.LineItem, error) {
	out := make([]models.LineItem, len(items))
	copy(out, items)
	for i := range out {
		if out[i].Held() {
			continue
		}
		route := RouteFor(out[i])
		code, err := AccountFor(route, env)
		if err != nil {
			return nil, err
		}
		out[i].Route = route
		out[i].AccountCode = code
	}
	return out, nil
}

// Group is the unit of distributor submission: all non-held items sharing a
// (route, account) pair.
type Group struct {
	Route       models.Route
	AccountCode string
	Items       []models.LineItem
}

// Groups splits classified items into at most two submission groups, in
// stable route order (in-house first).
func Groups(items []models.LineItem) []Group {
	byRoute := make(map[models.Route]*Group)
	for _, it := range items {
		if it.Held() || !it.Classified() {
			continue
		}
		g, ok := byRoute[it.Route]
		if !ok {
			g = &Group{Route: it.Route, AccountCode: it.AccountCode}
			byRoute[it.Route] = g
		}
		g.Items = append(g.Items, it)
	}

	var out []Group
	for _, route := range []models.Route{models.RouteInHouse, models.RouteDropShip} {
		if g, ok := byRoute[route]; ok {
			out = append(out, *g)
		}
	}
	return out
}
