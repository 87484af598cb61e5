// Package domain defines the core domain models for the legal assistant.
package domain

// Role is the author role of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// StoreDriver selects the persistence backend.
type StoreDriver string

const (
	StoreDriverSQLite   StoreDriver = "sqlite"
	StoreDriverPostgres StoreDriver = "postgres"
	StoreDriverMongo    StoreDriver = "mongo"
)

// Policy decisions returned by the query policy.
const (
	DecisionAllow = "allow"
	DecisionBlock = "block"
)
