package rbac

// Default policy for the exam portal roles.
var RolePermissions = map[string][]string{
	"student": {
		"exam:view",
		"session:start",
		"session:answer",
		"session:complete",
		"session:submit",
		"session:exit",
		"result:view-own",
	},
	"teacher": {
		"exam:view",
		"result:view-all",
		"events:view",
		"assets:upload",
	},
	"admin": {
		"*", // everything
	},
}
