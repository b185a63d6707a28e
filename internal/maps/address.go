package maps

import "math/rand"

// Address 地址解析结果（对外 JSON 契约）。
type Address struct {
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
}

// 演示用地址表。真实接入地理编码供应商前，服务从这里随机取值。
var addressTable = []Address{
	{Address: "777 Brockton Avenue", City: "Abington", State: "MA", Zip: "02351"},
	{Address: "30 Memorial Drive", City: "Avon", State: "MA", Zip: "02322"},
	{Address: "250 Hartford Avenue", City: "Bellingham", State: "MA", Zip: "02019"},
	{Address: "700 Oak Street", City: "Brockton", State: "MA", Zip: "02301"},
	{Address: "66-4 Parkhurst Rd", City: "Chelmsford", State: "MA", Zip: "01824"},
	{Address: "591 Memorial Dr", City: "Chicopee", State: "MA", Zip: "01020"},
	{Address: "55 Brooksby Village Way", City: "Danvers", State: "MA", Zip: "01923"},
	{Address: "137 Teaticket Hwy", City: "East Falmouth", State: "MA", Zip: "02536"},
	{Address: "42 Fairhaven Commons Way", City: "Fairhaven", State: "MA", Zip: "02719"},
	{Address: "374 William S Canning Blvd", City: "Fall River", State: "MA", Zip: "02721"},
	{Address: "121 Worcester Rd", City: "Framingham", State: "MA", Zip: "01701"},
	{Address: "677 Timpany Blvd", City: "Gardner", State: "MA", Zip: "01440"},
}

// AddressRepository 地址来源抽象，便于测试替换为确定性实现。
type AddressRepository interface {
	GetRandom() Address
}

// MockAddressRepository 从固定地址表随机取一条。
type MockAddressRepository struct {
	rnd *rand.Rand
}

func NewMockAddressRepository(rnd *rand.Rand) *MockAddressRepository {
	return &MockAddressRepository{rnd: rnd}
}

func (r *MockAddressRepository) GetRandom() Address {
	if r == nil || r.rnd == nil {
		return addressTable[0]
	}
	return addressTable[r.rnd.Intn(len(addressTable))]
}
