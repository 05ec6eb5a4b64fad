package services

import "math/rand"

var titleAdjectives = []string{
	"Sneaky", "Flying", "Invisible", "Relentless", "Smooth",
	"Explosive", "Slick", "Crafty", "Lightning", "Iron",
	"Rubber", "Technical", "Pressure", "Fluid", "Savage",
}

var titleTechniques = []string{
	"Armbar", "Triangle", "Sweep", "Guard-Pull", "Berimbolo",
	"Kimura", "Omoplata", "Guillotine", "Loop-Choke", "Knee-Slice",
	"X-Guard", "Half-Guard", "Mount", "Back-Take", "Leg-Lock",
}

// SuggestTitle returns a random "<Adjective> <Technique>" session title.
func SuggestTitle() string {
	return titleAdjectives[rand.Intn(len(titleAdjectives))] + " " + titleTechniques[rand.Intn(len(titleTechniques))]
}
