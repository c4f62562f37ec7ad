// Package resource defines the items managed through the keepsake console.
//
// # Overview
//
// Four collections live in the remote authority:
//
//   - contacts: class directory entries (no inherent order)
//   - memories: Markdown memory articles (newest first)
//   - merchandise: souvenir items, stored in the "souvenirs" table (newest first)
//   - orders: pre-orders placed through the storefront (newest first)
//
// Every item variant implements Item. Identifiers are opaque strings assigned
// by the authority; the client never fabricates one.
//
// # Helpers
//
//   - Excerpt renders a plain-text preview of a Markdown memory
//   - GroupContactsByRole groups directory entries for display
package resource
