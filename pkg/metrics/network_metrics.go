// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	networkMetricSubsystem = "network"
)

var (
	NetworkAcceptedConns = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: worldNamespace,
		Subsystem: networkMetricSubsystem,
		Name:      "accepted_total",
		Help:      "接受的 TCP 连接数量",
	})

	NetworkRejectedConns = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: worldNamespace,
		Subsystem: networkMetricSubsystem,
		Name:      "rejected_total",
		Help:      "因同一主机连接数超限而被拒绝的连接数量",
	})

	NetworkInboundFrames = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: worldNamespace,
		Subsystem: networkMetricSubsystem,
		Name:      "inbound_frames_total",
		Help:      "按操作码统计的入站帧数量",
	}, []string{opLabelName})

	NetworkOutboundBytes = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: worldNamespace,
		Subsystem: networkMetricSubsystem,
		Name:      "outbound_flush_bytes",
		Help:      "每次刷新出站缓冲区写出的字节数",
		Buckets:   sizeBuckets,
	})
)

// RegisterNetworkMetrics 将网络层指标注册到 Registerer。
func RegisterNetworkMetrics(r prometheus.Registerer) {
	r.MustRegister(NetworkAcceptedConns)
	r.MustRegister(NetworkRejectedConns)
	r.MustRegister(NetworkInboundFrames)
	r.MustRegister(NetworkOutboundBytes)
}
