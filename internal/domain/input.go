package domain

// RawInput carries per-category raw metrics supplied by the caller.
// Every category and every metric is optional. A nil category or a nil
// metric means "unknown" and is excluded from scoring entirely; it is
// never imputed as safe or unsafe.
type RawInput struct {
	Liquidity *LiquidityMetrics `json:"liquidity,omitempty"`
	Ownership *OwnershipMetrics `json:"ownership,omitempty"`
	Contract  *ContractMetrics  `json:"contract,omitempty"`
	Trading   *TradingMetrics   `json:"trading,omitempty"`
	Social    *SocialMetrics    `json:"social,omitempty"`
}

// LiquidityMetrics describes pool depth and lock state.
type LiquidityMetrics struct {
	TotalLiquidityUSD *float64 `json:"total_liquidity_usd,omitempty"`
	LockedPct         *float64 `json:"locked_pct,omitempty"` // percent of liquidity locked, 0-100
	LockActive        *bool    `json:"lock_active,omitempty"`
	PoolAgeHours      *float64 `json:"pool_age_hours,omitempty"`
}

// OwnershipMetrics describes holder distribution.
type OwnershipMetrics struct {
	CreatorPct  *float64 `json:"creator_percentage,omitempty"` // percent held by creator, 0-100
	Top10Pct    *float64 `json:"top10_percentage,omitempty"`   // percent held by top 10 holders, 0-100
	HolderCount *float64 `json:"holder_count,omitempty"`
}

// ContractMetrics describes on-chain authority flags.
type ContractMetrics struct {
	MintAuthorityActive   *bool `json:"mint_authority_active,omitempty"`
	FreezeAuthorityActive *bool `json:"freeze_authority_active,omitempty"`
	MetadataMutable       *bool `json:"metadata_mutable,omitempty"`
	Verified              *bool `json:"verified,omitempty"`
}

// TradingMetrics describes recent trading behavior.
type TradingMetrics struct {
	Volume24hUSD     *float64 `json:"volume_24h_usd,omitempty"`
	UniqueTraders24h *float64 `json:"unique_traders_24h,omitempty"`
	WashTradingPct   *float64 `json:"wash_trading_pct,omitempty"` // percent of volume flagged as wash, 0-100
	VolatilityPct    *float64 `json:"volatility_pct,omitempty"`   // 24h price range as percent of mid
}

// SocialMetrics describes community signals.
type SocialMetrics struct {
	TwitterFollowers *float64 `json:"twitter_followers,omitempty"`
	TelegramMembers  *float64 `json:"telegram_members,omitempty"`
	WebsiteActive    *bool    `json:"website_active,omitempty"`
	SentimentScore   *float64 `json:"sentiment_score,omitempty"` // -1 (negative) to +1 (positive)
}
