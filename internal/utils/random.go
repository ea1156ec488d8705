package utils

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/payroll-manager/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "勇", "霞", "飞", "玲",
	"超", "华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌",
	"庆", "建", "丹", "彬", "凤", "旭", "宁", "乐", "成", "欣",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

var roles = []domain.Role{
	domain.RoleConsultant,
	domain.RoleSeniorConsultant,
	domain.RoleAdmin,
}

func GenerateRandomRole() domain.Role {
	return roles[rand.Intn(len(roles))]
}

var digits = "0123456789"

func GenerateUsernameFromChineseName(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	username := ""

	for _, pinyin := range pinyinArray {
		length := rand.Intn(len(pinyin)) + 1
		username += pinyin[:length]
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

func GenerateRandomUser(password string, emailDomainName string) (*domain.User, error) {
	fullName := GenerateRandomChineseName()
	username := GenerateUsernameFromChineseName(fullName)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(passwordHash),
		FullName:     fullName,
		Email:        username + "@" + emailDomainName,
		Role:         GenerateRandomRole(),
	}

	return user, nil
}

func GenerateRandomOTP() string {
	return fmt.Sprintf("%06d", rand.Intn(1000000))
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	random_password := make([]rune, length)
	for i := range random_password {
		random_password[i] = letters[rand.Intn(len(letters))]
	}
	return string(random_password)
}

func GenerateRandomID(letterLength int, digitLength int) string {
	random_id := make([]rune, letterLength+digitLength)
	for i := range random_id {
		if i < letterLength {
			random_id[i] = letters[rand.Intn(len(letters))]
		} else {
			random_id[i] = rune(digits[rand.Intn(len(digits))])
		}
	}
	return string(random_id)
}

// 随机挑选一个与周期匹配的 dateValue
func GenerateRandomDateValue(cycleCode domain.CycleCode) int32 {
	switch cycleCode {
	case domain.CycleWeekly, domain.CycleBiweekly:
		return int32(rand.Intn(5) + 1) // 周一到周五
	default:
		return int32(rand.Intn(28) + 1) // 避开月末的边界
	}
}

// 生成已经上线的薪资组，goLiveDate 在过去几个月内
func GenerateRandomActivePayroll(p *domain.Payroll) {
	p.Status = domain.PayrollStatusActive
	p.GoLiveDate = time.Now().AddDate(0, -(rand.Intn(6) + 1), 0)
}

// 生成还在实施期的薪资组，goLiveDate 在未来
func GenerateRandomImplementationPayroll(p *domain.Payroll) {
	p.Status = domain.PayrollStatusImplementation
	p.GoLiveDate = time.Now().AddDate(0, 0, rand.Intn(60)+7)
}

// 随机生成一个薪资组的首个版本，不含 familyID 等由数据库赋值的字段
func GenerateRandomPayroll(clientID int64, cycle *domain.Cycle, dateTypeID int64, consultantID int64) *domain.Payroll {
	p := &domain.Payroll{
		Name:                    "薪资组" + GenerateRandomID(3, 3),
		ClientID:                clientID,
		CycleID:                 cycle.ID,
		DateTypeID:              dateTypeID,
		DateValue:               GenerateRandomDateValue(cycle.Code),
		PrimaryConsultantID:     consultantID,
		ProcessingDaysBeforeEFT: int32(rand.Intn(5) + 1),
		VersionReason:           "初始配置",
	}

	if rand.Intn(2) == 0 {
		GenerateRandomActivePayroll(p)
	} else {
		GenerateRandomImplementationPayroll(p)
	}

	return p
}
