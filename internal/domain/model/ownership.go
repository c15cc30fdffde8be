package model

// Ownership rule sources.
const (
	OwnershipSourceCodeowners = "CODEOWNERS"
	OwnershipSourceOwners     = "OWNERS"
)

// OwnershipRule maps a path pattern to an owner, parsed from a CODEOWNERS
// or Kubernetes-style OWNERS file.
type OwnershipRule struct {
	Repo        string
	PathPattern string
	Owner       string
	Source      string
}
