// Command ephemeris is a calendar-aware project scheduling engine:
// critical-path analysis, resource leveling, cost rollup, and earned
// value tracking over a TOML project file.
package main

import "github.com/papapumpkin/ephemeris/cmd"

func main() {
	cmd.Execute()
}
