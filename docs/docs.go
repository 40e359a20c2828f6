// Package docs Drynks API.
//
// Documentation of the Drynks invite and push notification API.
//
//     Schemes: https
//     BasePath: /
//     Version: 1.0.0
//     Host: https://drynks-api.herokuapp.com
//
//     Consumes:
//     - application/json
//
//     Produces:
//     - application/json
//
//     Security:
//     - bearer
//
//    SecurityDefinitions:
//    bearer:
//      type: apiKey
//      name: Authorization
//      in: header
//
// swagger:meta
package docs

import (
	"github.com/linesmerrill/drynks-api/invite"
	"github.com/linesmerrill/drynks-api/models"
	"github.com/linesmerrill/drynks-api/push"
)

// swagger:route GET /health health healthEndpointID
// Lists the healthchex of the web service api.
// responses:
//   200: healthResponse

// Shows the current health of the api. true means it is alive, false means it is not.
// swagger:response healthResponse
type healthResponseWrapper struct {
	// in:body
	Body models.HealthCheckResponse
}

// swagger:route POST /api/v1/rpc/create_share_invite invite createShareInvite
// Mints an invite code for an event owned by the caller.
// responses:
//   200: createShareInviteResponse
//   404: errorResponse

// swagger:parameters createShareInvite
type createShareInviteParams struct {
	// in:body
	Body invite.CreateShareInviteRequest
}

// The code and shareable link of a new invite.
// swagger:response createShareInviteResponse
type createShareInviteResponseWrapper struct {
	// in:body
	Body invite.CreateShareInviteResponse
}

// swagger:route POST /api/v1/rpc/claim_invite_code invite claimInviteCode
// Claims an invite code for the caller and files a membership request.
// responses:
//   200: claimInviteCodeResponse
//   404: errorResponse
//   409: errorResponse

// swagger:parameters claimInviteCode
type claimInviteCodeParams struct {
	// in:body
	Body invite.ClaimInviteCodeRequest
}

// The event the code belongs to and whether a new membership request was filed.
// swagger:response claimInviteCodeResponse
type claimInviteCodeResponseWrapper struct {
	// in:body
	Body invite.ClaimResult
}

// swagger:route GET /api/v1/invite invite inviteByCode
// Looks up an invite link by its code.
// responses:
//   200: inviteByCodeResponse
//   404: errorResponse

// swagger:response inviteByCodeResponse
type inviteByCodeResponseWrapper struct {
	// in:body
	Body models.InviteLink
}

// swagger:route POST /api/v1/notify push notify
// Sends a push notification to every active device of a user. Called by trusted backends with the service key.
// responses:
//   200: notifyResponse
//   204: description: the user has no devices
//   400: errorResponse

// swagger:parameters notify
type notifyParams struct {
	// in:body
	Body push.Request
}

// How many tickets were accepted and how many dead tokens were pruned.
// swagger:response notifyResponse
type notifyResponseWrapper struct {
	// in:body
	Body push.Result
}

// swagger:route POST /api/v1/push-tokens push registerPushToken
// Registers the caller's device token.
// responses:
//   200: description: registered

// swagger:parameters registerPushToken
type registerPushTokenParams struct {
	// in:body
	Body models.PushToken
}

// swagger:route DELETE /api/v1/push-tokens/{token} push revokePushToken
// Revokes one of the caller's device tokens.
// responses:
//   204: description: revoked

// swagger:response errorResponse
type errorResponseWrapper struct {
	// in:body
	Body models.ErrorMessageResponse
}
