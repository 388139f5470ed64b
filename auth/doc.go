/*
Package auth is for authentication and authorization. It contains the Identity of a logged in user, the Role enumeration, the capability table, the UserDB interface and the session glue.

Roles

Every user has exactly one role:

  agent        field agent, registers patients and submits assessments
  coordinator  reviews assessments of the municipality
  manager      like coordinator, can also manage the users of the municipality
  admin        like manager, for every municipality

Roles are not hierarchical by themselves. What a role may do is written down in one place, the capability table in capability.go. Handlers and the workflow engine ask Can(identity, op) and never compare roles on their own.

Municipalities

An Identity belongs to one municipality. Everything a user creates is stamped with it, and everything a user sees is filtered by it.
*/
package auth
