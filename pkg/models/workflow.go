package models

// WorkflowSummary is one record of the project workflow listing
type WorkflowSummary struct {
	ID          string `json:"id"`
	DisplayID   string `json:"displayId,omitempty"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// WorkflowInfo is the typed view of a workflow detail record
type WorkflowInfo struct {
	ID                  string  `mapstructure:"id" json:"id,omitempty"`
	DisplayID           string  `mapstructure:"displayId" json:"displayId,omitempty"`
	Name                string  `mapstructure:"name" json:"name,omitempty"`
	Description         string  `mapstructure:"description" json:"description,omitempty"`
	CreatedAt           string  `mapstructure:"createdAt" json:"createdAt,omitempty"`
	UpdatedAt           string  `mapstructure:"updatedAt" json:"updatedAt,omitempty"`
	TotalProcessingTime float64 `mapstructure:"totalProcessingTime" json:"totalProcessingTime,omitempty"`
}

// WorkflowTask is one block of a workflow graph
type WorkflowTask struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	BlockName    string   `json:"blockName,omitempty"`
	BlockVersion string   `json:"blockVersion,omitempty"`
	ParentsIDs   []string `json:"parentsIds,omitempty"`
}
