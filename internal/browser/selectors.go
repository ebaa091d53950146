package browser

// CSS selectors for the portal's login and submission pages. Kept in one
// place because they break together when the portal changes its markup.
const (
	SelSignInButton  = "a.h-login__btn--sign-in.js-loginform-trigger"
	SelUsernameInput = "input.js-login-uname[name='uname']"
	SelPasswordInput = "input.js-login-pass[name='pass']"
	SelLoginSubmit   = "button[type='submit'], input[type='submit']"

	SelUploadButton = "a.upload-btn.upload-btn--big.upload-btn--green"
	SelUploadCount  = "a#js-upload span"
	SelReadyItem    = "div.js-readyToSubmit"
	SelEditLink     = "a.js-upload-edit"
	SelNextItem     = "#js-next-submit"

	SelOriginalFilename = "#js-originalfilename"
	SelTitleInput       = "input#title"
	SelDescriptionInput = "textarea#description"
	SelItemImage        = ".upload-item.submit"

	SelRemoveCategory   = "#js-remove-cat3 > i"
	SelCategorySelect   = "#M_Category_3"
	SelSubcategory      = "#M_Subcategory_3"
	SelModelReleaseBtn  = "#js-mr-href"
	SelModelReleaseItem = "#js-mr-list > div.popup-release__list > div > div > div > label"
	SelExclusiveToggle  = "#js-exclusively > div > label"
	SelConfirmButton    = "button.btn.button.green.js-confirm"
	SelSubmitButton     = "a#submitbutton"

	// SelChallengeButton matches the press-and-hold human-verification
	// widget injected by the portal's bot protection.
	SelChallengeButton = "text=Press & Hold"
)

// Category values used when marking a submission as AI-generated.
const (
	AICategoryValue    = "172"
	AISubcategoryValue = "212"
)

// SecureLoginMarker appears in the URL of the secure-login verification
// interstitial.
const SecureLoginMarker = "securelogin"
