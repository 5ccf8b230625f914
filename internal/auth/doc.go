// package auth implements the token lifecycle for the wish-list service.
//
// Four pieces cooperate to keep a DJ's Spotify credentials usable without
// ever persisting an access token:
//
//   - TokenCipher encrypts refresh tokens before they reach the database and
//     decrypts them on demand. The primary scheme is AES-256-GCM; a legacy
//     XOR obfuscation scheme is still readable and is selected by the shape
//     of the stored envelope (no IV field).
//   - TokenCache holds live access tokens in process memory only, with a
//     safety margin before nominal expiry and a periodic sweep afterwards.
//   - StateStore correlates an OAuth authorization redirect with its
//     callback through a single-use random nonce, independent of cookie
//     delivery (cross-site cookie policies can drop the session cookie on
//     the redirect round-trip).
//   - Broker ties them together: given a user's encrypted refresh token it
//     produces a valid access token, refreshing against the provider on a
//     cache miss while serializing concurrent refreshes per user.
//
// Everything here is rebuildable from zero: a process restart loses cached
// access tokens and in-flight OAuth states, and users simply re-authenticate.
package auth
