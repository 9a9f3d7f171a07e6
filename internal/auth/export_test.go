package auth

var GhCLITokenWith = ghCLIToken
