package positioning

// Tier names shared by revenue and headcount bucketing.
const (
	TierEnterprise     = "enterprise"
	TierUpperMidMarket = "upper_mid_market"
	TierLarge          = "large"
	TierMidMarket      = "mid_market"
	TierSMB            = "smb"
	TierMicro          = "micro"
	TierUnknown        = "unknown"
)

// RevenueTier buckets annual revenue in whole currency units.
func RevenueTier(revenue *int64) string {
	if revenue == nil || *revenue <= 0 {
		return TierUnknown
	}
	switch r := *revenue; {
	case r >= 1_000_000_000:
		return TierEnterprise
	case r >= 100_000_000:
		return TierUpperMidMarket
	case r >= 10_000_000:
		return TierMidMarket
	case r >= 1_000_000:
		return TierSMB
	default:
		return TierMicro
	}
}

// HeadcountTier buckets employee counts.
func HeadcountTier(headcount *int) string {
	if headcount == nil || *headcount < 1 {
		return TierUnknown
	}
	switch n := *headcount; {
	case n >= 5000:
		return TierEnterprise
	case n >= 1000:
		return TierLarge
	case n >= 200:
		return TierMidMarket
	case n >= 50:
		return TierSMB
	default:
		return TierMicro
	}
}
