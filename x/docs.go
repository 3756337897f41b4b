/*
Package x contains the standard extensions of the ledger.

Extensions implement common functionality (Handler, Decorator,
Initializer, etc.) and are combined together by the application.
Every extension takes an Authenticator in its constructor, so the
authentication system can be replaced without touching the extension.
*/
package x
