// package services contains the Spotify client the backend brokers on the
// organizer's behalf.
//
// The service exposes exactly the provider surface the routes need: the
// authorization URL, the code exchange, the refresh exchange, the profile
// fetch, a public track search, and the player queue call. Everything else
// about the Spotify API is out of scope and treated as opaque.
package services
