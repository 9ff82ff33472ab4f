package shared

// Capabilities understood by the permissions service.
const (
	// CapSendPush lets holders trigger push notifications and see the send control.
	CapSendPush = "send_push_notifications"
	// CapManageOptions is the administrative capability guarding the settings page.
	CapManageOptions = "manage_options"
)

// CoreScopes lists every capability the service reads or writes.
func CoreScopes() []string {
	return []string{
		CapSendPush,
		CapManageOptions,
	}
}
