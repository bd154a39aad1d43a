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
	worldMetricSubsystem    = "world"
	presenceMetricSubsystem = "presence"
	eventMetricSubsystem    = "event"
	storageMetricSubsystem  = "storage"
)

var (
	WorldPlayersOnline = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: worldNamespace,
		Subsystem: worldMetricSubsystem,
		Name:      "players_online",
		Help:      "当前处于 LoggedIn 阶段的玩家数量",
	}, []string{worldIDLabelName})

	WorldClients = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: worldNamespace,
		Subsystem: worldMetricSubsystem,
		Name:      "clients",
		Help:      "当前持有的客户端连接数量（含未登录）",
	}, []string{worldIDLabelName})

	WorldTickLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: worldNamespace,
		Subsystem: worldMetricSubsystem,
		Name:      "tick_latency_ms",
		Help:      "单次 tick 的耗时，单位毫秒",
		Buckets:   tickBuckets,
	}, []string{worldIDLabelName})

	WorldLoginResults = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: worldNamespace,
		Subsystem: worldMetricSubsystem,
		Name:      "login_results_total",
		Help:      "按响应码统计的登录结果数量",
	}, []string{worldIDLabelName, codeLabelName})

	WorldCredentialLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: worldNamespace,
		Subsystem: worldMetricSubsystem,
		Name:      "credential_check_ms",
		Help:      "凭据校验耗时，单位毫秒",
		Buckets:   longTaskBuckets,
	})

	WorldIdleDisconnects = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: worldNamespace,
		Subsystem: worldMetricSubsystem,
		Name:      "idle_disconnects_total",
		Help:      "因超过空闲超时而被断开的客户端数量",
	})

	PresenceStatusPushes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: worldNamespace,
		Subsystem: presenceMetricSubsystem,
		Name:      "status_pushes_total",
		Help:      "按在线状态统计的好友状态推送数量",
	}, []string{statusLabelName})

	PresencePrivateMessages = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: worldNamespace,
		Subsystem: presenceMetricSubsystem,
		Name:      "private_messages_total",
		Help:      "成功投递的私聊消息数量",
	})

	EventDispatched = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: worldNamespace,
		Subsystem: eventMetricSubsystem,
		Name:      "dispatched_total",
		Help:      "按类型统计的事件分发数量",
	}, []string{kindLabelName})

	EventHandlerFaults = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: worldNamespace,
		Subsystem: eventMetricSubsystem,
		Name:      "handler_faults_total",
		Help:      "事件处理器返回错误或发生 panic 的次数",
	}, []string{kindLabelName})

	StorageSaveLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: worldNamespace,
		Subsystem: storageMetricSubsystem,
		Name:      "save_latency_ms",
		Help:      "玩家档案存档耗时，单位毫秒",
		Buckets:   longTaskBuckets,
	})

	StorageSaveFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: worldNamespace,
		Subsystem: storageMetricSubsystem,
		Name:      "save_failures_total",
		Help:      "重试耗尽后仍失败的存档次数",
	})
)

// RegisterWorldMetrics 将世界、好友、事件与存储相关的指标注册到 Registerer。
func RegisterWorldMetrics(r prometheus.Registerer) {
	r.MustRegister(WorldPlayersOnline)
	r.MustRegister(WorldClients)
	r.MustRegister(WorldTickLatency)
	r.MustRegister(WorldLoginResults)
	r.MustRegister(WorldCredentialLatency)
	r.MustRegister(WorldIdleDisconnects)
	r.MustRegister(PresenceStatusPushes)
	r.MustRegister(PresencePrivateMessages)
	r.MustRegister(EventDispatched)
	r.MustRegister(EventHandlerFaults)
	r.MustRegister(StorageSaveLatency)
	r.MustRegister(StorageSaveFailures)
}
