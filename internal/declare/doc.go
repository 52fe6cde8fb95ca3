// Package declare loads the local declaration from a directory of CUE files.
//
// Files are unified with an embedded schema before conversion, so type and
// enum errors are reported with CUE positions. A minimal declaration:
//
//	solution: "Core"
//	prefix:   "ctx"
//
//	plugin: "Ctx.Plugins.AccountPlugin": step: [{
//		message: "Update"
//		entity:  "account"
//		stage:   "PostOperation"
//		image: [{alias: "pre", type: "PreImage", attributes: ["name"]}]
//	}]
//
//	customapi: "ctx_Recalculate": {
//		binding:      "Entity"
//		bound_entity: "account"
//		request: "ctx_Target": {type: "EntityReference", entity: "account"}
//		response: "ctx_Total": {type: "Money"}
//	}
//
// Steps without a name are named "<type>: <stage> <message> of <entity>";
// images without a name take their alias.
package declare
