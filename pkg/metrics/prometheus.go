// Copyright 2020 U.S. Naval Research Laboratory
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// NewPromCounter creates a registered prometheus counter wrapped as a
// Counter.
func NewPromCounter(opts prometheus.CounterOpts) Counter {
	return promCounter{c: promauto.NewCounter(opts)}
}

// NewPromGauge creates a registered prometheus gauge wrapped as a Gauge.
func NewPromGauge(opts prometheus.GaugeOpts) Gauge {
	return promGauge{g: promauto.NewGauge(opts)}
}

type promCounter struct {
	c prometheus.Counter
}

func (p promCounter) Add(delta float64) {
	p.c.Add(delta)
}

type promGauge struct {
	g prometheus.Gauge
}

func (p promGauge) Set(value float64) {
	p.g.Set(value)
}

func (p promGauge) Add(delta float64) {
	p.g.Add(delta)
}
