package profanity

import (
	"github.com/audiolens/backend/internal/analysis/sentiment"
	"github.com/audiolens/backend/internal/model/analysis"
)

// Keyword classifier with two severity tiers. Severe terms always flag the
// sentence; mild terms only count when the sentence already reads negative,
// so "damn good talk" stays clean.

var severeWords = map[string]bool{
	"fuck": true, "fucking": true, "shit": true, "bitch": true, "bastard": true,
	"asshole": true, "dumbass": true, "dick": true, "piss": true, "bollocks": true,
	"prick": true, "motherfucker": true, "motherfucking": true, "slut": true,
	"whore": true, "cock": true, "cunt": true, "bugger": true, "wanker": true,
	"twat": true, "tosser": true, "dipshit": true, "jackass": true, "arse": true,
	"arsehole": true, "gobshite": true, "horseshit": true, "fuckface": true,
	"fuckwad": true, "shithead": true, "shitface": true, "asshat": true,
	"asswipe": true, "scumbag": true, "skank": true, "pussy": true, "douche": true,
	"douchebag": true, "dickhead": true, "bellend": true, "knobhead": true,
	"knobend": true, "pillock": true, "plonker": true, "turd": true,
	"cocksucker": true, "shitstain": true, "shitshow": true, "fucktard": true,
	"goddamn": true, "goddammit": true, "idiot": true,
}

var mildWords = map[string]bool{
	"hell": true, "damn": true, "dammit": true, "ridiculous": true, "stupid": true,
	"crap": true, "dumb": true, "moron": true, "fool": true, "loser": true,
	"jerk": true, "suck": true, "sucks": true, "lame": true, "trash": true,
	"useless": true, "nonsense": true, "pathetic": true, "lazy": true,
	"gross": true, "annoying": true, "disgusting": true, "terrible": true,
	"horrible": true, "awful": true, "freak": true, "weirdo": true, "screw": true,
	"shady": true, "dirty": true, "cheap": true, "clown": true, "shameless": true,
	"nasty": true, "stinking": true, "miserable": true, "idiotic": true,
	"bullshit": true,
}

// mildNegativeGate is the compound threshold below which mild terms count.
const mildNegativeGate = -0.3

// Classify labels one sentence given its sentiment score.
func Classify(text string, score analysis.SentimentScore) analysis.ProfanityLabel {
	words := sentiment.Tokenize(text)

	for _, word := range words {
		if severeWords[word] {
			return analysis.Profane
		}
	}

	if score.Compound < mildNegativeGate {
		for _, word := range words {
			if mildWords[word] {
				return analysis.MildlyProfane
			}
		}
	}

	return analysis.Clean
}
