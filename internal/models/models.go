package models

import "strings"

// LeadStage is a lead's position in the fixed NEW -> QUALIFIED -> CONVERTED lifecycle.
type LeadStage string

const (
	StageNew       LeadStage = "NEW"
	StageQualified LeadStage = "QUALIFIED"
	StageConverted LeadStage = "CONVERTED"
)

// Stages lists every lead stage in lifecycle order.
var Stages = []LeadStage{StageNew, StageQualified, StageConverted}

func (s LeadStage) Valid() bool {
	switch s {
	case StageNew, StageQualified, StageConverted:
		return true
	}
	return false
}

func (s LeadStage) String() string { return string(s) }

// ParseLeadStage accepts any casing and surrounding whitespace.
func ParseLeadStage(s string) (LeadStage, bool) {
	st := LeadStage(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", false
	}
	return st, true
}

type SourceType string

const (
	SourcePhone SourceType = "phone"
	SourceForm  SourceType = "form"
)

type CampaignStatus string

const (
	CampaignEnabled CampaignStatus = "enabled"
	CampaignPaused  CampaignStatus = "paused"
)

type Campaign struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Status CampaignStatus `json:"status"`
}

type ConversionAction struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	EventName  string     `json:"event_name"`
	Stage      LeadStage  `json:"stage"`
	SourceType SourceType `json:"source_type"`
	Value      float64    `json:"value"`
	Enabled    bool       `json:"enabled"`
}

type Goal struct {
	ID          string             `json:"id"`
	Stage       LeadStage          `json:"stage"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Actions     []ConversionAction `json:"actions"`
}

type CampaignAssignment struct {
	CampaignID string    `json:"campaign_id"`
	Stage      LeadStage `json:"stage"`
}

type SignalCluster struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Goals       []Goal               `json:"goals"`
	Assignments []CampaignAssignment `json:"assignments"`
}

// Clone returns a deep copy sharing no slices with c.
func (c SignalCluster) Clone() SignalCluster {
	out := c
	out.Goals = make([]Goal, len(c.Goals))
	for i, g := range c.Goals {
		g.Actions = append([]ConversionAction(nil), g.Actions...)
		out.Goals[i] = g
	}
	out.Assignments = append([]CampaignAssignment{}, c.Assignments...)
	return out
}

// Assignment returns the campaign's assignment within this cluster, if any.
func (c SignalCluster) Assignment(campaignID string) (CampaignAssignment, bool) {
	for _, a := range c.Assignments {
		if a.CampaignID == campaignID {
			return a, true
		}
	}
	return CampaignAssignment{}, false
}

// Placement answers "which cluster and stage currently govern this campaign".
type Placement struct {
	ClusterID   string    `json:"cluster_id"`
	ClusterName string    `json:"cluster_name"`
	Stage       LeadStage `json:"stage"`
}

// Client is an agency sub-account (tenant).
type Client struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

type ClusterSummary struct {
	ClusterID         string            `json:"cluster_id"`
	Name              string            `json:"name"`
	Description       string            `json:"description"`
	Active            bool              `json:"active"`
	AssignedCampaigns int               `json:"assigned_campaigns"`
	ByStage           map[LeadStage]int `json:"by_stage"`
	EnabledValue      float64           `json:"enabled_value"`
}

type CampaignRow struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Status       CampaignStatus `json:"status"`
	AssignedHere bool           `json:"assigned_here"`
	Stage        LeadStage      `json:"stage,omitempty"`
	ClusterID    string         `json:"cluster_id,omitempty"`
	MovesFrom    string         `json:"moves_from,omitempty"`
}
