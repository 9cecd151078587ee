package rootcause

import (
	"github.com/adwatch/sentinel/models"
)

// direction of the anomalous change.
type direction string

const (
	up   direction = "up"
	down direction = "down"
)

type ruleKey struct {
	Metric    models.Metric
	Direction direction
}

// causeTemplate is the declarative half of a rule: what to suspect and what
// to do about it. Base probabilities are scaled by magnitude and severity at
// analysis time. Adding a metric or cause is a data change, not new branching.
type causeTemplate struct {
	ID       string
	Category models.CauseCategory
	Name     string
	Base     float64
	Evidence []string
	Actions  []models.RootCauseAction
}

var ruleTable = map[ruleKey][]causeTemplate{
	{models.MetricConversions, down}: {
		{
			ID:       "tracking_failure",
			Category: models.CauseTechnical,
			Name:     "Conversion tracking or pixel failure",
			Base:     0.55,
			Evidence: []string{"Conversions dropped while traffic metrics held steady"},
			Actions: []models.RootCauseAction{
				{ID: "verify_pixel", Priority: models.PriorityCritical, Description: "Fire a test conversion and verify the pixel reports it"},
				{ID: "check_events", Priority: models.PriorityHigh, Description: "Compare platform conversion counts against backend orders"},
			},
		},
		{
			ID:       "landing_page_regression",
			Category: models.CauseInternal,
			Name:     "Landing page regression or outage",
			Base:     0.45,
			Evidence: []string{"A broken or slow landing page suppresses conversions without hurting clicks"},
			Actions: []models.RootCauseAction{
				{ID: "test_landing", Priority: models.PriorityCritical, Description: "Load the landing page on desktop and mobile, complete a purchase"},
				{ID: "check_deploys", Priority: models.PriorityMedium, Description: "Review recent site deployments for regressions"},
			},
		},
	},
	{models.MetricCVR, down}: {
		{
			ID:       "landing_page_regression",
			Category: models.CauseInternal,
			Name:     "Landing page regression or checkout friction",
			Base:     0.5,
			Evidence: []string{"Clicks convert at a lower rate; the page, offer, or checkout changed"},
			Actions: []models.RootCauseAction{
				{ID: "test_funnel", Priority: models.PriorityCritical, Description: "Walk the full funnel from ad click to purchase"},
			},
		},
		{
			ID:       "audience_mismatch",
			Category: models.CauseInternal,
			Name:     "Audience drifted away from buyers",
			Base:     0.35,
			Evidence: []string{"Broadened targeting brings clicks that do not convert"},
			Actions: []models.RootCauseAction{
				{ID: "review_targeting", Priority: models.PriorityHigh, Description: "Compare converting-audience segments before and after the drop"},
			},
		},
	},
	{models.MetricCPA, up}: {
		{
			ID:       "budget_targeting_drift",
			Category: models.CauseInternal,
			Name:     "Budget or targeting drift raised acquisition cost",
			Base:     0.5,
			Evidence: []string{"Spend keeps flowing while conversions lag behind"},
			Actions: []models.RootCauseAction{
				{ID: "review_bids", Priority: models.PriorityCritical, Description: "Audit bid strategy changes and pause the worst ad sets"},
				{ID: "cap_budget", Priority: models.PriorityHigh, Description: "Cap spend until CPA returns to target"},
			},
		},
		{
			ID:       "funnel_leak",
			Category: models.CauseInternal,
			Name:     "Conversion funnel leak",
			Base:     0.4,
			Evidence: []string{"Cost per acquisition rises when the funnel loses buyers mid-way"},
			Actions: []models.RootCauseAction{
				{ID: "inspect_funnel", Priority: models.PriorityHigh, Description: "Find the funnel step with the new drop-off"},
			},
		},
		{
			ID:       "auction_pressure",
			Category: models.CauseExternal,
			Name:     "Rising auction competition",
			Base:     0.35,
			Evidence: []string{"Competitor bidding raises cost per result across the account"},
			Actions: []models.RootCauseAction{
				{ID: "check_cpm", Priority: models.PriorityMedium, Description: "Compare CPM trends across campaigns for a market-wide rise"},
			},
		},
	},
	{models.MetricSpend, up}: {
		{
			ID:       "auction_pressure",
			Category: models.CauseExternal,
			Name:     "Auction competition raised delivery cost",
			Base:     0.5,
			Evidence: []string{"Unchanged budget settings with higher spend points to pricier auctions"},
			Actions: []models.RootCauseAction{
				{ID: "check_cpm", Priority: models.PriorityHigh, Description: "Review CPM and frequency trends for auction pressure"},
			},
		},
		{
			ID:       "budget_change",
			Category: models.CauseInternal,
			Name:     "Budget raised or pacing changed",
			Base:     0.4,
			Evidence: []string{"A budget edit or pacing switch lifts daily spend immediately"},
			Actions: []models.RootCauseAction{
				{ID: "audit_budget", Priority: models.PriorityHigh, Description: "Check the campaign change log for budget edits"},
			},
		},
	},
	{models.MetricSpend, down}: {
		{
			ID:       "budget_cap",
			Category: models.CauseInternal,
			Name:     "Budget cap reached or delivery constrained",
			Base:     0.55,
			Evidence: []string{"Spend stops when a daily or lifetime cap is exhausted"},
			Actions: []models.RootCauseAction{
				{ID: "check_caps", Priority: models.PriorityHigh, Description: "Verify daily and lifetime budget caps and billing status"},
			},
		},
		{
			ID:       "delivery_restriction",
			Category: models.CauseTechnical,
			Name:     "Ad disapproval or delivery restriction",
			Base:     0.35,
			Evidence: []string{"Rejected ads or policy flags cut delivery without config changes"},
			Actions: []models.RootCauseAction{
				{ID: "check_approvals", Priority: models.PriorityCritical, Description: "Check ad review status and policy notifications"},
			},
		},
	},
	{models.MetricImpressions, down}: {
		{
			ID:       "audience_saturation",
			Category: models.CauseInternal,
			Name:     "Audience saturation",
			Base:     0.45,
			Evidence: []string{"High frequency with shrinking reach means the audience is exhausted"},
			Actions: []models.RootCauseAction{
				{ID: "expand_audience", Priority: models.PriorityMedium, Description: "Broaden targeting or rotate in fresh audiences"},
			},
		},
		{
			ID:       "learning_phase",
			Category: models.CauseMarket,
			Name:     "Delivery algorithm learning phase",
			Base:     0.3,
			Evidence: []string{"Recently edited campaigns re-enter learning and deliver less"},
			Actions: []models.RootCauseAction{
				{ID: "wait_learning", Priority: models.PriorityLow, Description: "Hold further edits until the learning phase settles"},
			},
		},
	},
	{models.MetricClicks, down}: {
		{
			ID:       "creative_fatigue",
			Category: models.CauseInternal,
			Name:     "Creative fatigue",
			Base:     0.45,
			Evidence: []string{"The same audience stops clicking creatives it has already seen"},
			Actions: []models.RootCauseAction{
				{ID: "rotate_creatives", Priority: models.PriorityHigh, Description: "Launch fresh creative variants"},
			},
		},
	},
	{models.MetricCTR, down}: {
		{
			ID:       "creative_relevance_decay",
			Category: models.CauseInternal,
			Name:     "Creative relevance decay",
			Base:     0.5,
			Evidence: []string{"Falling CTR at stable reach means the message stopped resonating"},
			Actions: []models.RootCauseAction{
				{ID: "refresh_creatives", Priority: models.PriorityHigh, Description: "Refresh copy and visuals, test against the current set"},
				{ID: "review_placement", Priority: models.PriorityMedium, Description: "Compare CTR by placement for a mix shift"},
			},
		},
	},
	{models.MetricROAS, down}: {
		{
			ID:       "tracking_failure",
			Category: models.CauseTechnical,
			Name:     "Revenue tracking failure",
			Base:     0.45,
			Evidence: []string{"ROAS collapses instantly when purchase values stop reporting"},
			Actions: []models.RootCauseAction{
				{ID: "verify_values", Priority: models.PriorityCritical, Description: "Verify purchase values flow into the ads platform"},
			},
		},
		{
			ID:       "demand_softening",
			Category: models.CauseMarket,
			Name:     "Demand or basket size softening",
			Base:     0.35,
			Evidence: []string{"Lower order values at steady conversion counts point to demand"},
			Actions: []models.RootCauseAction{
				{ID: "compare_aov", Priority: models.PriorityMedium, Description: "Compare average order value week over week"},
			},
		},
	},
	{models.MetricRevenue, down}: {
		{
			ID:       "tracking_failure",
			Category: models.CauseTechnical,
			Name:     "Revenue tracking failure",
			Base:     0.4,
			Evidence: []string{"Missing purchase events zero out reported revenue"},
			Actions: []models.RootCauseAction{
				{ID: "verify_values", Priority: models.PriorityCritical, Description: "Verify purchase events and values end to end"},
			},
		},
		{
			ID:       "demand_softening",
			Category: models.CauseMarket,
			Name:     "Demand softening",
			Base:     0.35,
			Evidence: []string{"Seasonal or market-wide demand dips lower revenue across campaigns"},
			Actions: []models.RootCauseAction{
				{ID: "check_peers", Priority: models.PriorityLow, Description: "Compare against other campaigns and channels"},
			},
		},
	},
	{models.MetricCPC, up}: {
		{
			ID:       "auction_pressure",
			Category: models.CauseExternal,
			Name:     "Auction competition raised click cost",
			Base:     0.5,
			Evidence: []string{"Click prices rise account-wide when competitors enter the auction"},
			Actions: []models.RootCauseAction{
				{ID: "check_cpm", Priority: models.PriorityHigh, Description: "Review CPM trends and competitor activity"},
			},
		},
		{
			ID:       "quality_decline",
			Category: models.CauseInternal,
			Name:     "Ad quality ranking decline",
			Base:     0.35,
			Evidence: []string{"Lower relevance rankings make every click more expensive"},
			Actions: []models.RootCauseAction{
				{ID: "check_quality", Priority: models.PriorityMedium, Description: "Review ad quality and engagement rankings"},
			},
		},
	},
}

// genericCauses backstops (metric, direction) pairs with no dedicated rules,
// including celebratory improvements.
var genericCauses = []causeTemplate{
	{
		ID:       "market_fluctuation",
		Category: models.CauseMarket,
		Name:     "Market or delivery fluctuation",
		Base:     0.3,
		Evidence: []string{"No dedicated rule matched; the swing may be ordinary variance"},
		Actions: []models.RootCauseAction{
			{ID: "monitor", Priority: models.PriorityLow, Description: "Monitor the metric over the next few days before acting"},
		},
	},
}

// causesFor returns the templates for a metric/direction pair.
func causesFor(metric models.Metric, dir direction) []causeTemplate {
	if causes, ok := ruleTable[ruleKey{metric, dir}]; ok {
		return causes
	}
	return genericCauses
}
