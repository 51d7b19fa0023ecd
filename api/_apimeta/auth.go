package _apimeta

import (
	"github.com/phosio/phosio/session"
)

type UserInfo struct {
	UserId       string
	AccessToken  string
	RefreshToken string
}

func (u UserInfo) IsAuthenticated() bool {
	return u.AccessToken != ""
}

func UserInfoFromSession(data *session.Data) UserInfo {
	if data == nil {
		return UserInfo{}
	}
	return UserInfo{
		UserId:       data.UserId,
		AccessToken:  data.AccessToken,
		RefreshToken: data.RefreshToken,
	}
}
