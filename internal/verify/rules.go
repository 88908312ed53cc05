// Package verify implements the declarative verification rule engine: a
// static rule table matched against completed questionnaire responses, the
// task cascade it materializes, and the automated check simulator.
package verify

import (
	"github.com/sells-group/supplier-risk/internal/model"
)

// Verification type names understood by the automated check clients.
const (
	CheckSanctionsList = "sanctions_list"
	CheckDeforestation = "satellite_deforestation"
	CheckCertification = "certification_registry"
	CheckPFASRegistry  = "pfas_registry"
)

// Spec describes one work item a triggered rule materializes.
type Spec struct {
	TaskType          model.TaskType
	Title             string
	Description       string
	VerificationType  string
	RequiredDocuments []string
	DueInDays         int
	// Severity, when critical, escalates to an alert at task creation
	// time. The triggering answer alone is sufficient; escalation does not
	// wait for a downstream check to fail.
	Severity model.AlertSeverity
}

// Rule binds a (category, response key) pair to the specs it fires when the
// answer matches TriggerValue ("yes" or "no" after normalization).
type Rule struct {
	Category     model.Category
	Key          string
	TriggerValue string
	Specs        []Spec
}

type ruleKey struct {
	cat model.Category
	key string
}

// RuleSet is an immutable lookup table of verification rules.
type RuleSet struct {
	byKey map[ruleKey]Rule
}

// NewRuleSet indexes rules by (category, key). Later duplicates win, which
// lets a fixture table override a single default rule.
func NewRuleSet(rules []Rule) *RuleSet {
	byKey := make(map[ruleKey]Rule, len(rules))
	for _, r := range rules {
		byKey[ruleKey{r.Category, r.Key}] = r
	}
	return &RuleSet{byKey: byKey}
}

// Lookup returns the rule for a (category, response key) pair.
func (rs *RuleSet) Lookup(cat model.Category, key string) (Rule, bool) {
	r, ok := rs.byKey[ruleKey{cat, key}]
	return r, ok
}

// Len returns the number of rules in the set.
func (rs *RuleSet) Len() int {
	return len(rs.byKey)
}

// DefaultRules returns the production rule table.
func DefaultRules() *RuleSet {
	return NewRuleSet([]Rule{
		{
			Category: model.CategoryChemicalContent, Key: "uses_pfas", TriggerValue: "yes",
			Specs: []Spec{
				{
					TaskType:         model.TaskDatabaseCheck,
					Title:            "PFAS registry cross-check",
					Description:      "Cross-check supplier against the PFAS handler registry.",
					VerificationType: CheckPFASRegistry,
					DueInDays:        7,
				},
				{
					TaskType:          model.TaskTestReportRequest,
					Title:             "PFAS content test report",
					Description:       "Request an accredited lab report quantifying PFAS content.",
					RequiredDocuments: []string{"lab_test_report", "substance_declaration"},
					DueInDays:         21,
				},
			},
		},
		{
			Category: model.CategoryChemicalContent, Key: "reach_compliant", TriggerValue: "no",
			Specs: []Spec{
				{
					TaskType:          model.TaskDocumentation,
					Title:             "REACH compliance declaration",
					Description:       "Provide a REACH compliance declaration covering all supplied articles.",
					RequiredDocuments: []string{"reach_declaration"},
					DueInDays:         14,
				},
			},
		},
		{
			Category: model.CategoryHumanRights, Key: "no_child_labor", TriggerValue: "no",
			Specs: []Spec{
				{
					TaskType:    model.TaskAuditRequest,
					Title:       "On-site child labor audit",
					Description: "Commission an independent on-site audit of child labor controls.",
					DueInDays:   14,
					Severity:    model.SeverityCritical,
				},
			},
		},
		{
			Category: model.CategoryHumanRights, Key: "forced_labor_controls", TriggerValue: "no",
			Specs: []Spec{
				{
					TaskType:    model.TaskAuditRequest,
					Title:       "Forced labor controls audit",
					Description: "Commission an independent audit of recruitment and forced labor controls.",
					DueInDays:   14,
					Severity:    model.SeverityCritical,
				},
				{
					TaskType:         model.TaskDatabaseCheck,
					Title:            "Sanctions list cross-check",
					Description:      "Cross-check supplier against sanctions and enforcement lists.",
					VerificationType: CheckSanctionsList,
					DueInDays:        3,
				},
			},
		},
		{
			Category: model.CategoryHumanRights, Key: "grievance_mechanism", TriggerValue: "no",
			Specs: []Spec{
				{
					TaskType:    model.TaskDocumentation,
					Title:       "Grievance mechanism documentation",
					Description: "Document the worker grievance mechanism or a remediation plan for introducing one.",
					DueInDays:   30,
				},
			},
		},
		{
			Category: model.CategoryDeforestation, Key: "deforestation_free", TriggerValue: "no",
			Specs: []Spec{
				{
					TaskType:         model.TaskDatabaseCheck,
					Title:            "Satellite deforestation check",
					Description:      "Run a satellite imagery deforestation check on sourcing regions.",
					VerificationType: CheckDeforestation,
					DueInDays:        7,
				},
				{
					TaskType:          model.TaskDocumentation,
					Title:             "Chain of custody records",
					Description:       "Provide chain of custody records for forest-risk commodities.",
					RequiredDocuments: []string{"chain_of_custody"},
					DueInDays:         21,
				},
			},
		},
		{
			Category: model.CategoryEnvironmental, Key: "iso14001_certified", TriggerValue: "yes",
			Specs: []Spec{
				{
					TaskType:         model.TaskDatabaseCheck,
					Title:            "ISO 14001 certificate validation",
					Description:      "Validate the claimed ISO 14001 certification against the accreditation registry.",
					VerificationType: CheckCertification,
					DueInDays:        7,
				},
			},
		},
		{
			Category: model.CategoryEnvironmental, Key: "hazardous_waste_permit", TriggerValue: "no",
			Specs: []Spec{
				{
					TaskType:          model.TaskDocumentation,
					Title:             "Hazardous waste handling permit",
					Description:      "Provide the hazardous waste handling permit or a remediation timeline.",
					RequiredDocuments: []string{"waste_permit"},
					DueInDays:         14,
				},
			},
		},
		{
			Category: model.CategoryEmissions, Key: "scope12_measured", TriggerValue: "no",
			Specs: []Spec{
				{
					TaskType:    model.TaskTestReportRequest,
					Title:       "Scope 1/2 emissions measurement",
					Description: "Request a measured scope 1 and 2 emissions report.",
					DueInDays:   30,
				},
			},
		},
		{
			Category: model.CategoryPackaging, Key: "recycled_content_verified", TriggerValue: "no",
			Specs: []Spec{
				{
					TaskType:          model.TaskTestReportRequest,
					Title:             "Recycled content verification",
					Description:       "Request third-party verification of claimed recycled content.",
					RequiredDocuments: []string{"recycled_content_certificate"},
					DueInDays:         21,
				},
			},
		},
		{
			Category: model.CategoryGeneral, Key: "code_of_conduct_signed", TriggerValue: "no",
			Specs: []Spec{
				{
					TaskType:          model.TaskDocumentation,
					Title:             "Signed supplier code of conduct",
					Description:       "Obtain a signed copy of the supplier code of conduct.",
					RequiredDocuments: []string{"code_of_conduct"},
					DueInDays:         14,
				},
			},
		},
	})
}
