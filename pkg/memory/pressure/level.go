/*
 * Copyright 2024 The Memwarden Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package pressure

import "strconv"

// Level defines the possible memory pressure classifications
type Level int

const (
	// LevelLow indicates system memory usage below 70 percent
	LevelLow = Level(iota)
	// LevelModerate indicates system memory usage of at least 70 percent
	LevelModerate
	// LevelHigh indicates system memory usage of at least 80 percent
	LevelHigh
	// LevelCritical indicates system memory usage of at least 90 percent
	LevelCritical
)

// Classification thresholds in used percent
const (
	ModerateThreshold = 70.0
	HighThreshold     = 80.0
	CriticalThreshold = 90.0
)

var levelNames = map[Level]string{
	LevelLow:      "low",
	LevelModerate: "moderate",
	LevelHigh:     "high",
	LevelCritical: "critical",
}

func (l Level) String() string {
	if v, ok := levelNames[l]; ok {
		return v
	}
	return strconv.Itoa(int(l))
}

// Classify returns the pressure Level for the provided system memory
// used percentage
func Classify(usedPercent float64) Level {
	switch {
	case usedPercent >= CriticalThreshold:
		return LevelCritical
	case usedPercent >= HighThreshold:
		return LevelHigh
	case usedPercent >= ModerateThreshold:
		return LevelModerate
	}
	return LevelLow
}
