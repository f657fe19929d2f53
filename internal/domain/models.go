// Package domain defines the persistence models for users, customers, deals,
// interactions, and tasks. These types are mapped with GORM and form the core
// data layer of the CRM application.
package domain

import (
	"time"
)

// Role is the access level assigned to a user account.
type Role string

// User roles.
const (
	RoleAdmin   Role = "ADMIN"
	RoleSales   Role = "SALES"
	RoleManager Role = "MANAGER"
)

// CustomerStatus is the lifecycle state of a customer record.
type CustomerStatus string

// Customer statuses.
const (
	CustomerActive   CustomerStatus = "ACTIVE"
	CustomerInactive CustomerStatus = "INACTIVE"
	CustomerProspect CustomerStatus = "PROSPECT"
)

// DealStage is the pipeline phase of a deal, rendered as a Kanban column by
// the frontend board.
type DealStage string

// Deal stages.
const (
	StageLead        DealStage = "LEAD"
	StageQualified   DealStage = "QUALIFIED"
	StageProposal    DealStage = "PROPOSAL"
	StageNegotiation DealStage = "NEGOTIATION"
	StageClosedWon   DealStage = "CLOSED_WON"
	StageClosedLost  DealStage = "CLOSED_LOST"
)

// InteractionType categorizes a customer touchpoint.
type InteractionType string

// Interaction types.
const (
	InteractionCall    InteractionType = "CALL"
	InteractionEmail   InteractionType = "EMAIL"
	InteractionMeeting InteractionType = "MEETING"
	InteractionNote    InteractionType = "NOTE"
)

// TaskPriority ranks a task's urgency.
type TaskPriority string

// Task priorities.
const (
	PriorityLow    TaskPriority = "LOW"
	PriorityMedium TaskPriority = "MEDIUM"
	PriorityHigh   TaskPriority = "HIGH"
)

// TaskStatus is the completion state of a task.
type TaskStatus string

// Task statuses.
const (
	TaskPending    TaskStatus = "PENDING"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskCompleted  TaskStatus = "COMPLETED"
)

// User represents an account that can authenticate and own CRM records.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Email: login identifier; globally unique.
//   - Password: bcrypt hash, hidden from all JSON responses.
//   - Role: ADMIN, SALES, or MANAGER (enforced by DB constraint).
type User struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	Name      string    `json:"name"       gorm:"type:varchar(255);not null"`
	Email     string    `json:"email"      gorm:"type:varchar(255);not null;uniqueIndex:ux_users_email"`
	Password  string    `json:"-"          gorm:"type:varchar(255);not null"`
	Role      Role      `json:"role"       gorm:"type:varchar(16);not null;default:'SALES';check:role IN ('ADMIN','SALES','MANAGER')"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Customer represents an account or contact being managed in the CRM.
// Every customer is assigned to the user who created it.
//
// DealsCount, InteractionsCount, and TasksCount are read-only aggregates
// populated by list queries via correlated subselects; they are not columns.
type Customer struct {
	ID         string         `json:"id"          gorm:"type:char(36);primaryKey"`
	Name       string         `json:"name"        gorm:"type:varchar(255);not null"`
	Email      *string        `json:"email"       gorm:"type:varchar(255)"`
	Phone      *string        `json:"phone"       gorm:"type:varchar(64)"`
	Company    *string        `json:"company"     gorm:"type:varchar(255)"`
	Address    *string        `json:"address"     gorm:"type:text"`
	Status     CustomerStatus `json:"status"      gorm:"type:varchar(16);not null;default:'ACTIVE';check:status IN ('ACTIVE','INACTIVE','PROSPECT')"`
	AssignedTo string         `json:"assigned_to" gorm:"type:char(36);not null;index:idx_customers_assigned"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`

	DealsCount        int64 `json:"deals_count"        gorm:"->;-:migration"`
	InteractionsCount int64 `json:"interactions_count" gorm:"->;-:migration"`
	TasksCount        int64 `json:"tasks_count"        gorm:"->;-:migration"`

	// AssignedUser is the owning account. Customers are never cascade-deleted
	// with their owner.
	AssignedUser *User `json:"assigned_user,omitempty" gorm:"foreignKey:AssignedTo;references:ID"`

	Deals        []Deal        `json:"deals,omitempty"        gorm:"foreignKey:CustomerID"`
	Interactions []Interaction `json:"interactions,omitempty" gorm:"foreignKey:CustomerID"`
	Tasks        []Task        `json:"tasks,omitempty"        gorm:"foreignKey:CustomerID"`
}

// TableName returns the database table name for Customer.
func (Customer) TableName() string { return "customers" }

// Deal represents a revenue opportunity attached to a customer and moving
// through the pipeline stages.
//
// Probability is a percentage in [0,100]. ExpectedCloseDate is optional.
// The customer FK restricts deletion: a customer with deals cannot be removed.
type Deal struct {
	ID                string     `json:"id"                  gorm:"type:char(36);primaryKey"`
	Title             string     `json:"title"               gorm:"type:varchar(255);not null"`
	Value             *float64   `json:"value"`
	Stage             DealStage  `json:"stage"               gorm:"type:varchar(16);not null;default:'LEAD';check:stage IN ('LEAD','QUALIFIED','PROPOSAL','NEGOTIATION','CLOSED_WON','CLOSED_LOST')"`
	Probability       int        `json:"probability"         gorm:"not null;default:50;check:probability BETWEEN 0 AND 100"`
	ExpectedCloseDate *time.Time `json:"expected_close_date"`
	CustomerID        string     `json:"customer_id"         gorm:"type:char(36);not null;index:idx_deals_customer"`
	AssignedTo        string     `json:"assigned_to"         gorm:"type:char(36);not null;index:idx_deals_assigned"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	Customer     *Customer `json:"customer,omitempty"      gorm:"foreignKey:CustomerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	AssignedUser *User     `json:"assigned_user,omitempty" gorm:"foreignKey:AssignedTo;references:ID"`
}

// TableName returns the database table name for Deal.
func (Deal) TableName() string { return "deals" }

// Interaction records a single touchpoint (call, email, meeting, note) with
// a customer, authored by a user at a given time.
type Interaction struct {
	ID          string          `json:"id"          gorm:"type:char(36);primaryKey"`
	Type        InteractionType `json:"type"        gorm:"type:varchar(16);not null;check:type IN ('CALL','EMAIL','MEETING','NOTE')"`
	Subject     string          `json:"subject"     gorm:"type:varchar(255);not null"`
	Description *string         `json:"description" gorm:"type:text"`
	Date        time.Time       `json:"date"        gorm:"not null;index:idx_interactions_date"`
	CustomerID  string          `json:"customer_id" gorm:"type:char(36);not null;index:idx_interactions_customer"`
	UserID      string          `json:"user_id"     gorm:"type:char(36);not null"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	Customer *Customer `json:"customer,omitempty" gorm:"foreignKey:CustomerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	User     *User     `json:"user,omitempty"     gorm:"foreignKey:UserID;references:ID"`
}

// TableName returns the database table name for Interaction.
func (Interaction) TableName() string { return "interactions" }

// Task is a to-do item assigned to a user, optionally linked to a customer
// and/or a deal. Task lists are scoped to the assignee.
type Task struct {
	ID          string       `json:"id"          gorm:"type:char(36);primaryKey"`
	Title       string       `json:"title"       gorm:"type:varchar(255);not null"`
	Description *string      `json:"description" gorm:"type:text"`
	DueDate     *time.Time   `json:"due_date"    gorm:"index:idx_tasks_due"`
	Priority    TaskPriority `json:"priority"    gorm:"type:varchar(16);not null;default:'MEDIUM';check:priority IN ('LOW','MEDIUM','HIGH')"`
	Status      TaskStatus   `json:"status"      gorm:"type:varchar(16);not null;default:'PENDING';check:status IN ('PENDING','IN_PROGRESS','COMPLETED')"`
	CustomerID  *string      `json:"customer_id" gorm:"type:char(36);index:idx_tasks_customer"`
	DealID      *string      `json:"deal_id"     gorm:"type:char(36);index:idx_tasks_deal"`
	AssignedTo  string       `json:"assigned_to" gorm:"type:char(36);not null;index:idx_tasks_assigned"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`

	Customer     *Customer `json:"customer,omitempty"      gorm:"foreignKey:CustomerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Deal         *Deal     `json:"deal,omitempty"          gorm:"foreignKey:DealID;references:ID"`
	AssignedUser *User     `json:"assigned_user,omitempty" gorm:"foreignKey:AssignedTo;references:ID"`
}

// TableName returns the database table name for Task.
func (Task) TableName() string { return "tasks" }
