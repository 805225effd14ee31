package rbac

// Default policy. Students own their workflow; teachers author units and
// review everyone's attempt history.
var RolePermissions = map[string][]string{
	"student": {
		"unit:view",
		"workflow:dispatch",
		"workflow:reset",
		"workflow:view-own",
		"user:change_password",
	},
	"teacher": {
		"unit:create",
		"unit:view",
		"workflow:view-all",
		"users:bulk_upsert",
		"users:list",
	},
	"admin": {
		"*", // everything
	},
}
