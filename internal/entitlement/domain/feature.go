package domain

// Feature names a gated capability. The set is closed; unknown names are
// denied, never errors.
type Feature string

const (
	FeatureBasicCollection        Feature = "BASIC_COLLECTION"
	FeatureSearch                 Feature = "SEARCH"
	FeatureCommunityBrowse        Feature = "COMMUNITY_BROWSE"
	FeatureMultilingual           Feature = "MULTILINGUAL"
	FeatureUnlimitedCollection    Feature = "UNLIMITED_COLLECTION"
	FeatureSmokingLog             Feature = "SMOKING_LOG"
	FeatureCellarLog              Feature = "CELLAR_LOG"
	FeaturePairingManual          Feature = "PAIRING_MANUAL"
	FeatureAdvancedFilters        Feature = "ADVANCED_FILTERS"
	FeatureTobaccoLibrarySync     Feature = "TOBACCO_LIBRARY_SYNC"
	FeatureMessaging              Feature = "MESSAGING"
	FeatureShareCards             Feature = "SHARE_CARDS"
	FeatureCommunitySafety        Feature = "COMMUNITY_SAFETY"
	FeatureConditionTracking      Feature = "CONDITION_TRACKING"
	FeatureMaintenanceLogs        Feature = "MAINTENANCE_LOGS"
	FeatureRotationPlanner        Feature = "ROTATION_PLANNER"
	FeatureCellarAging            Feature = "CELLAR_AGING"
	FeatureInventoryForecast      Feature = "INVENTORY_FORECAST"
	FeatureBlendJournal           Feature = "BLEND_JOURNAL"
	FeaturePairingAdvanced        Feature = "PAIRING_ADVANCED"
	FeatureCollectionOptimization Feature = "COLLECTION_OPTIMIZATION"
	FeatureBreakInSchedule        Feature = "BREAK_IN_SCHEDULE"
	FeatureAIUpdates              Feature = "AI_UPDATES"
	FeatureAIIdentify             Feature = "AI_IDENTIFY"
	FeatureAnalyticsInsights      Feature = "ANALYTICS_INSIGHTS"
	FeatureBulkEdit               Feature = "BULK_EDIT"
	FeatureExportReports          Feature = "EXPORT_REPORTS"
)

type tierSet uint8

const (
	tierSetFree tierSet = 1 << iota
	tierSetPremium
	tierSetPro
)

const (
	allTiers     = tierSetFree | tierSetPremium | tierSetPro
	paidTiers    = tierSetPremium | tierSetPro
	proOnlyTiers = tierSetPro
)

// featureTiers is the authoritative gate table. New features are added here,
// never as conditionals in evaluation code.
var featureTiers = map[Feature]tierSet{
	FeatureBasicCollection: allTiers,
	FeatureSearch:          allTiers,
	FeatureCommunityBrowse: allTiers,
	FeatureMultilingual:    allTiers,

	FeatureUnlimitedCollection: paidTiers,
	FeatureSmokingLog:          paidTiers,
	FeatureCellarLog:           paidTiers,
	FeaturePairingManual:       paidTiers,
	FeatureAdvancedFilters:     paidTiers,
	FeatureTobaccoLibrarySync:  paidTiers,
	FeatureMessaging:           paidTiers,
	FeatureShareCards:          paidTiers,
	FeatureCommunitySafety:     paidTiers,
	FeatureConditionTracking:   paidTiers,
	FeatureMaintenanceLogs:     paidTiers,
	FeatureRotationPlanner:     paidTiers,
	FeatureCellarAging:         paidTiers,
	FeatureInventoryForecast:   paidTiers,
	FeatureBlendJournal:        paidTiers,

	FeaturePairingAdvanced:        proOnlyTiers,
	FeatureCollectionOptimization: proOnlyTiers,
	FeatureBreakInSchedule:        proOnlyTiers,
	FeatureAIUpdates:              proOnlyTiers,
	FeatureAIIdentify:             proOnlyTiers,
	FeatureAnalyticsInsights:      proOnlyTiers,
	FeatureBulkEdit:               proOnlyTiers,
	FeatureExportReports:          proOnlyTiers,
}

// legacyBonusFeatures are the pro features a pre-cutoff premium subscriber
// keeps.
var legacyBonusFeatures = map[Feature]struct{}{
	FeatureAIUpdates:     {},
	FeatureAIIdentify:    {},
	FeatureBulkEdit:      {},
	FeatureExportReports: {},
}

func tierBit(tier Tier) tierSet {
	switch tier {
	case TierFree:
		return tierSetFree
	case TierPremium:
		return tierSetPremium
	case TierPro:
		return tierSetPro
	default:
		return 0
	}
}

// FeatureGrant describes one catalog row for diagnostic listings.
type FeatureGrant struct {
	Feature     Feature `json:"feature"`
	Tiers       []Tier  `json:"tiers"`
	LegacyBonus bool    `json:"legacy_bonus"`
}

// Catalog returns the full gate table in a stable order.
func Catalog() []FeatureGrant {
	ordered := []Feature{
		FeatureBasicCollection, FeatureSearch, FeatureCommunityBrowse, FeatureMultilingual,
		FeatureUnlimitedCollection, FeatureSmokingLog, FeatureCellarLog, FeaturePairingManual,
		FeatureAdvancedFilters, FeatureTobaccoLibrarySync, FeatureMessaging, FeatureShareCards,
		FeatureCommunitySafety, FeatureConditionTracking, FeatureMaintenanceLogs,
		FeatureRotationPlanner, FeatureCellarAging, FeatureInventoryForecast, FeatureBlendJournal,
		FeaturePairingAdvanced, FeatureCollectionOptimization, FeatureBreakInSchedule,
		FeatureAIUpdates, FeatureAIIdentify, FeatureAnalyticsInsights, FeatureBulkEdit,
		FeatureExportReports,
	}

	grants := make([]FeatureGrant, 0, len(ordered))
	for _, feature := range ordered {
		set := featureTiers[feature]
		tiers := make([]Tier, 0, 3)
		for _, tier := range []Tier{TierFree, TierPremium, TierPro} {
			if set&tierBit(tier) != 0 {
				tiers = append(tiers, tier)
			}
		}
		_, legacy := legacyBonusFeatures[feature]
		grants = append(grants, FeatureGrant{Feature: feature, Tiers: tiers, LegacyBonus: legacy})
	}
	return grants
}
