package moderation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var messageProcessDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name: "pancyguard_message_duration_sec",
	Help: "Total duration of message moderation",
})

var messageProcessCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pancyguard_messages_processed",
	Help: "Number of messages processed, by resulting action",
}, []string{"action"})

var policyTriggerCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pancyguard_policy_triggers",
	Help: "Number of triggered policies, by policy and exemption reason",
}, []string{"policy", "exemption"})

var escalationCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pancyguard_escalations",
	Help: "Number of escalations executed, by policy and action",
}, []string{"policy", "action"})

var stageErrorCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pancyguard_stage_errors",
	Help: "Number of failures while moderating messages, by stage",
}, []string{"stage"})

var messageRecordFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "pancyguard_message_record_failures",
	Help: "Number of message records that could not be persisted",
})
