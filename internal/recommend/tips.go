package recommend

// dailyTips is the fixed set the tip-of-day candidate draws from. One tip
// is chosen uniformly at random per generation.
var dailyTips = []string{
	"Run the dishwasher and washing machine during off-peak hours to cut your bill.",
	"Unplug chargers and standby appliances; phantom load adds up over a month.",
	"Lowering the thermostat by 1°C reduces heating consumption by roughly 7%.",
	"Batch your oven use: cook several dishes in one session instead of reheating it.",
	"LED bulbs use about 80% less electricity than halogen equivalents.",
	"Delay-start timers let appliances run in the cheapest window while you sleep.",
}
