package journal

import "futbot/market"

func parseSide(s string) market.Side {
	switch s {
	case "LONG":
		return market.Long
	case "SHORT":
		return market.Short
	default:
		return market.Flat
	}
}
