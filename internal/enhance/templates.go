package enhance

import (
	"math/rand"

	"github.com/jackzampolin/stockpilot/internal/run"
)

// templateOne and templateTwo are the two phrase sets appended to
// descriptions when template enhancement is enabled. Each phrase already
// carries its leading separator.
var templateOne = []string{
	", high resolution",
	", aesthetic background",
	", stunning visual effect",
	", detailed texture",
	", artistic vibe",
	", captivating background",
	", high quality result",
	", elegant style",
	", mesmerizing view",
	", beautiful background",
	", professional touch",
	", vibrant tone",
	", luxurious feel",
	", cinematic background",
	", colorful theme",
	", minimalist background",
	", vintage charm",
	", futuristic concept",
	", abstract background",
	", modern aesthetic",
	", polished appearance",
	", seamless texture",
	", harmonious background",
	", immersive atmosphere",
	", nature-inspired background",
	", bold composition",
	", intricate background design",
	", glossy reflection",
	", refined elegance",
	", subtle gradient",
	", dreamy concept",
	", expressive background details",
	", creative perspective",
	", layered depth",
	", smooth transitions",
	", timeless background beauty",
	", fresh tone",
	", urban background",
	", artistic arrangement",
	", dynamic background flow",
}

var templateTwo = []string{
	", glowing background effect",
	", intricate detail",
	", serene vibe",
	", cozy background atmosphere",
	", exotic touch",
	", pastel background tone",
	", bold appearance",
	", surreal background theme",
	", enchanting mood",
	", rustic texture",
	", glossy background finish",
	", monochrome style",
	", geometric background pattern",
	", dynamic flow",
	", dreamy and soft background gradient",
	", playful design",
	", refined background touch",
	", sophisticated detail",
	", urban aesthetic",
	", whimsical background charm",
	", radiant glow",
	", natural elegance",
	", fluid motion",
	", stylish background execution",
	", polished lines",
	", innovative background concept",
	", vibrant highlights",
	", balanced composition",
	", gentle background curves",
	", cool tones",
	", modern simplicity",
	", artistic harmony",
	", textured dimension",
	", vivid saturation",
	", contrasting background elements",
	", fresh composition",
	", subtle details",
	", timeless atmosphere",
	", bright inspiration",
	", dynamic background perspective",
}

// phrases returns the phrase set for a template selector, or nil for none.
func phrases(t run.Template) []string {
	switch t {
	case run.TemplateOne:
		return templateOne
	case run.TemplateTwo:
		return templateTwo
	default:
		return nil
	}
}

// Phrase returns one pseudo-randomly chosen phrase from the selected template
// set. Selection is independent per call; repeats across a run are expected.
// Returns "" for run.TemplateNone.
func Phrase(t run.Template) string {
	set := phrases(t)
	if len(set) == 0 {
		return ""
	}
	return set[rand.Intn(len(set))]
}
