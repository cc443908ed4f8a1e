package lesson

import "github.com/verte-zerg/typemaster/internal/model"

// Paragraphs ending in "\n" need an explicit Enter to complete.
var paragraphs = map[model.Tier][]string{
	model.TierEasy: {
		"the sun sets over the hills and the sky turns a soft shade of red",
		"a small boat drifts on the lake while the wind moves the tall grass\n",
		"we walk to the park each day and sit by the old oak tree to read",
		"fresh bread and warm milk make a good start to a cold winter day\n",
		"the cat sleeps on the mat and the dog naps by the door all day long",
		"light rain falls on the roof as the kids play a game at the table",
	},
	model.TierMedium: {
		"Morning fog rolled over the harbor, and the fishing boats waited for the tide.",
		"She packed a map, a flashlight, and two apples before the long hike.\n",
		"The library was quiet; only the turning of pages broke the silence.",
		"Every garden needs patience, water, and a little bit of luck to grow.\n",
		"Tom asked if the train was late. The clerk said it would arrive soon.",
		"Bright lanterns lined the street, guiding travelers home after dark.",
	},
	model.TierHard: {
		"\"Precision matters,\" the engineer said; \"a 0.5 mm error can ruin the whole batch.\"",
		"Order #4721 shipped on 2024-03-18: 3x cables, 12x adapters (USB-C), and 1x hub.\n",
		"Her notes read: 'Check the logs @ 09:45; if errors > 10%, roll back & alert ops!'",
		"The recipe called for 250g flour, 2 eggs & 1/2 cup milk;\nbake at 180C for 25-30 min.\n",
		"Isn't it odd? The sign said \"No Entry\" [closed], yet the gate stood wide open.",
		"Key rules: {always} save often, never trust `rm -rf`, and keep backups ~weekly.",
	},
}
