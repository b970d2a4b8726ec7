package entity

// Task is an engine user task awaiting a decision on one request
type Task struct {
	UserTaskKey        string `json:"userTaskKey"`
	ProcessInstanceKey string `json:"processInstanceKey"`
	Assignee           string `json:"assignee"`
	State              string `json:"state"`
	CreationDate       string `json:"creationDate,omitempty"`
	Name               string `json:"name,omitempty"`
	ElementID          string `json:"elementId,omitempty"`
}

// Decision is the outcome an approver records when completing a task
type Decision struct {
	Approval bool   `json:"approval"`
	Comments string `json:"managerComments"`
}

// ProcessInstance is the engine's answer to a process start
type ProcessInstance struct {
	ProcessInstanceKey       string `json:"processInstanceKey"`
	ProcessDefinitionID      string `json:"processDefinitionId"`
	ProcessDefinitionVersion int    `json:"processDefinitionVersion"`
	TenantID                 string `json:"tenantId"`
}
