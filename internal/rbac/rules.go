package rbac

// Default policy. Students drive their own study flow; admins manage the
// question bank.
var RolePermissions = map[string][]string{
	"student": {
		"exam:start",
		"exam:view-own",
		"exam:submit",
		"progress:record",
		"badges:view",
		"billing:view",
	},
	"admin": {
		"*", // everything
	},
}
