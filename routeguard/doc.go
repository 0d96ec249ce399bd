// Package routeguard decides render-vs-redirect for every protected routed
// subtree.
//
// The heart of the package is [Authorize], a pure total function over the
// current session snapshot and the static permission table. It always yields
// exactly one definite [Decision]; it cannot fail. The HTTP and gin adapters
// only translate decisions into responses.
//
// Decision ordering is part of the contract:
//
//  1. Unknown auth state → [DecisionPending] (never redirect during
//     hydration).
//  2. Anonymous → [DecisionLoginRedirect], recording the attempted path for
//     post-login return.
//  3. Role mismatch → [DecisionDashboardRedirect] to the caller's own
//     default dashboard (least privilege; the generic unauthorized page is
//     reserved for unmapped roles).
//  4. Inactive account → [DecisionDisabledRedirect]. The role check runs
//     first so a disabled account of the correct role is told "disabled",
//     not "wrong role".
//  5. Otherwise → [DecisionAllow].
package routeguard
