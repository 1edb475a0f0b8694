/*
Package mock provides a scripted httpclient.Client for tests of the Workers KV
client that must not touch the network.

Routes are keyed by method and full URL; anything unrouted gets the default
response, an empty successful API envelope. Success, Failure, JSON and Text
build typed responses, and every request is kept in Calls.
*/
package mock
