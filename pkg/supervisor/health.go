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

package supervisor

// HealthState classifies the overall condition of the supervised subsystems
type HealthState int

const (
	// HealthCritical indicates the system is failing to serve its workload
	HealthCritical = HealthState(iota)
	// HealthPoor indicates sustained degradation that needs intervention
	HealthPoor
	// HealthFair indicates reduced effectiveness
	HealthFair
	// HealthGood indicates normal operation
	HealthGood
	// HealthExcellent indicates headroom across all subsystems
	HealthExcellent
)

var healthNames = map[HealthState]string{
	HealthCritical:  "critical",
	HealthPoor:      "poor",
	HealthFair:      "fair",
	HealthGood:      "good",
	HealthExcellent: "excellent",
}

func (h HealthState) String() string {
	if name, ok := healthNames[h]; ok {
		return name
	}
	return "unknown"
}

// Weights applied to the component scores when computing the composite
// health score. They sum to 1.
const (
	WeightMemory       = 0.30
	WeightHitRate      = 0.25
	WeightUtilization  = 0.20
	WeightOptimization = 0.25
)

// Composite-score thresholds for each health state. A score at or above a
// threshold earns at least that state.
const (
	ThresholdExcellent = 0.9
	ThresholdGood      = 0.7
	ThresholdFair      = 0.5
	ThresholdPoor      = 0.3
)

// HealthScore computes the weighted composite score in [0, 1] from the
// component metrics. Memory usage and pool utilization contribute inverted,
// so that headroom scores high.
func HealthScore(m *SystemMetrics) float64 {
	memScore := 1 - (m.Memory.UsedPercent / 100)
	if memScore < 0 {
		memScore = 0
	}
	utilScore := 1 - m.PoolUtilization
	if utilScore < 0 {
		utilScore = 0
	}
	return WeightMemory*memScore +
		WeightHitRate*m.CacheHitRate +
		WeightUtilization*utilScore +
		WeightOptimization*m.OptimizationScore
}

// HealthFromScore maps a composite score to its HealthState
func HealthFromScore(score float64) HealthState {
	switch {
	case score >= ThresholdExcellent:
		return HealthExcellent
	case score >= ThresholdGood:
		return HealthGood
	case score >= ThresholdFair:
		return HealthFair
	case score >= ThresholdPoor:
		return HealthPoor
	}
	return HealthCritical
}
