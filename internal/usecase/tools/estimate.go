package tools

import (
	"math"
	"strings"

	"github.com/fairyhunter13/lead-agent/pkg/textx"
)

// Project classes reported by estimate_price_range.
const (
	ClassFullNativeApp    = "full_native_app"
	ClassAppMVP           = "app_mvp"
	ClassCrossPlatformApp = "cross_platform_app"
	ClassBasicOnePage     = "basic_one_page_website"
	ClassAdvancedWebsite  = "advanced_website"
)

const (
	estimateNote       = "Directional estimate only. Upper-range quotes require name, email, business type, budget, timeline, and required features. Book a call to confirm project scope."
	minPages           = 1
	maxPages           = 60
	largeSiteThreshold = 6
)

// band is an additive [min,max] GBP pair.
type band struct{ min, max int }

var (
	bandNativeApp    = band{3000, 8000}
	bandAppMVP       = band{1000, 2000}
	bandCrossPlatApp = band{1600, 3200}
	bandBasicSite    = band{600, 1000}
	bandAdvancedSite = band{1000, 3000}

	surchargeManyPages = band{250, 900}
	surchargeCMS       = band{250, 900}
	surchargeBranding  = band{250, 700}
	surchargeAPI       = band{300, 1400}
	surchargeAIAgent   = band{400, 1800}
)

// urgency multipliers applied to min and max respectively
var urgencyFactors = map[string][2]float64{
	"fast": {1.08, 1.15},
	"rush": {1.15, 1.25},
}

// PriceRange is an inclusive GBP range.
type PriceRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// EstimateResult is the estimate_price_range output.
type EstimateResult struct {
	Currency          string     `json:"currency"`
	ProjectClass      string     `json:"projectClass"`
	EstimatedRange    PriceRange `json:"estimatedRange"`
	EstimatedTimeline string     `json:"estimatedTimeline"`
	Note              string     `json:"note"`
}

// Estimate prices a project from loose arguments. Missing or invalid inputs take defaults.
func Estimate(args Args) EstimateResult {
	projectType := strings.ToLower(args.String("projectType"))
	platform := args.String("platform")

	pages, ok := args.Number("pageCount")
	if !ok || math.IsNaN(pages) {
		pages = 1
	}
	pages = math.Min(math.Max(pages, minPages), maxPages)

	cms := args.Bool("includesCms")
	branding := args.Bool("includesBranding")
	api := args.Bool("includesApiIntegration") || textx.ContainsAny(projectType, "api", "database", "backend")
	ai := args.Bool("includesAiAgent") || textx.ContainsAny(projectType, "ai agent", "assistant")
	isApp := platform == "cross-platform" || platform == "native" ||
		textx.ContainsAny(projectType, "app", "mobile", "react native", "flutter", "swift", "ios", "android")
	isNative := platform == "native" || textx.ContainsAny(projectType, "native", "swift", "ios", "android")
	isMVP := args.Bool("isMvp") || textx.ContainsAny(projectType, "mvp", "prototype")

	var (
		total    band
		timeline string
		class    string
	)
	switch {
	case isApp && isNative:
		total, timeline, class = bandNativeApp, "4-12 weeks", ClassFullNativeApp
	case isApp && isMVP:
		total, timeline, class = bandAppMVP, "2-8 weeks", ClassAppMVP
	case isApp:
		total, timeline, class = bandCrossPlatApp, "2-8 weeks", ClassCrossPlatformApp
	case pages <= 1 && !cms && !branding && !api && !ai:
		total, timeline, class = bandBasicSite, "around 1 week", ClassBasicOnePage
	default:
		total, timeline, class = bandAdvancedSite, "2-4 weeks (longer for complex features)", ClassAdvancedWebsite
	}

	if !isApp && pages > largeSiteThreshold {
		total = total.add(surchargeManyPages)
	}
	if cms {
		total = total.add(surchargeCMS)
	}
	if branding {
		total = total.add(surchargeBranding)
	}
	if api {
		total = total.add(surchargeAPI)
	}
	if ai {
		total = total.add(surchargeAIAgent)
	}

	lo, hi := float64(total.min), float64(total.max)
	if f, ok := urgencyFactors[args.String("urgency")]; ok {
		lo, hi = lo*f[0], hi*f[1]
	}

	return EstimateResult{
		Currency:          "GBP",
		ProjectClass:      class,
		EstimatedRange:    PriceRange{Min: int(math.Round(lo)), Max: int(math.Round(hi))},
		EstimatedTimeline: timeline,
		Note:              estimateNote,
	}
}

func (b band) add(o band) band { return band{b.min + o.min, b.max + o.max} }
