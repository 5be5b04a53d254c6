package cache

// KeyServiceList is the per-owner key of the service catalog list.
func KeyServiceList(owner string) string {
	return "catalog:services:" + owner
}

// KeyPublicSnapshot is the key of a shared proposal snapshot.
func KeyPublicSnapshot(token string) string {
	if token == "" {
		return ""
	}
	return "proposal:snapshot:" + token
}

// KeyDashboard is the per-owner key of the dashboard overview.
func KeyDashboard(owner string) string {
	return "dashboard:overview:" + owner
}
