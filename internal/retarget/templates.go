// Package retarget implements periodic educational outreach to consultation
// leads who have not converted to an ongoing coaching program.
package retarget

import "strings"

// Render substitutes named placeholders of the form {name} in a message
// template. Placeholders without a matching variable are left intact.
func Render(template string, vars map[string]string) string {
	out := template
	for k, v := range vars {
		out = strings.ReplaceAll(out, "{"+k+"}", v)
	}
	return out
}

// EducationalTips is the fixed pool of retargeting templates. The sweep
// shuffles this pool per client and avoids repeating any of the client's
// last five retargeting messages.
var EducationalTips = []string{
	"Hi {name}! Quick tip: starting your day with a protein-rich breakfast helps keep cravings in check until lunch.",
	"Hi {name}! Did you know staying hydrated can reduce false hunger signals? Aim for a glass of water before each meal.",
	"Hi {name}! Small swaps add up: try wholegrain bread instead of white for steadier energy through the day.",
	"Hi {name}! A 10-minute walk after meals can noticeably improve digestion and blood sugar balance.",
	"Hi {name}! Planning your meals for the week takes 15 minutes and saves hours of unhealthy improvisation.",
	"Hi {name}! Sleep and nutrition are linked: 7+ hours of sleep makes it much easier to resist sugary snacks.",
	"Hi {name}! Colorful plates tend to be healthier plates - aim for at least three vegetable colors at dinner.",
	"Hi {name}! Eating slowly gives your fullness signals time to catch up. Try putting the fork down between bites.",
	"Hi {name}! Healthy fats from nuts, avocado, and olive oil keep you satisfied longer than refined carbs.",
	"Hi {name}! Consistency beats perfection: one balanced meal at a time is how lasting habits are built.",
}
