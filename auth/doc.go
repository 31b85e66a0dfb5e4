// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides worker identity tokens.

# Anonymous Identities

Workers get a signed session token before they ever authenticate:

	token, claims, err := auth.MintAnonymous(secret)

The token carries a random v4 UUID subject and an anon marker. Work
recorded under it survives the worker later logging in: the login flow
merges the anonymous history into the permanent identity.

# Permanent Identities

Permanent worker ids are derived deterministically from the verified
email (v5 UUID in a fixed namespace), so the same email always maps to
the same worker id without a user table:

	id := auth.PermanentUserID("worker@example.org")
	token, claims, err := auth.MintAuthenticated("worker@example.org", secret)

Email verification itself happens upstream (OAuth proxy); this package
only encodes the already-verified identity.

# Verification

Parse validates signature, algorithm, and expiry:

	claims, err := auth.Parse(token, secret)

Invalid tokens return ErrInvalidToken; the identity middleware responds
by minting a fresh anonymous identity rather than failing the request.
*/
package auth
